package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TimJentzsch/bevy-website/pkg/assets"
)

var (
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorCyan   = lipgloss.Color("36")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
)

// renderSummary formats the walk statistics for the end of a run.
func renderSummary(stats *assets.Stats) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Catalog summary"))
	b.WriteString(fmt.Sprintf("\n  %d assets in %d sections\n", stats.Assets, stats.Sections))
	b.WriteString("  " + styleSuccess.Render(fmt.Sprintf("%d resolved", stats.Resolved)))
	b.WriteString(", " + styleWarning.Render(fmt.Sprintf("%d skipped", stats.Skipped)))
	b.WriteString(", " + styleError.Render(fmt.Sprintf("%d failed", stats.Failed)))
	return b.String()
}
