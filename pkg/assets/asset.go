// Package assets builds the asset catalog tree from a directory of TOML
// descriptor files and merges resolved metadata into it.
package assets

import (
	"strings"

	"github.com/TimJentzsch/bevy-website/pkg/metadata"
)

// defaultOrder sorts entries without an explicit order last.
const defaultOrder = 99999

// Asset is one catalog entry, decoded from a descriptor file. The
// Licenses and BevyVersions fields are author-declared when present in
// the descriptor; resolved metadata never replaces them.
type Asset struct {
	Name         string   `toml:"name" json:"name"`
	Link         string   `toml:"link" json:"link"`
	Description  string   `toml:"description" json:"description"`
	Order        *int     `toml:"order" json:"order,omitempty"`
	Image        string   `toml:"image" json:"image,omitempty"`
	Licenses     []string `toml:"licenses" json:"licenses,omitempty"`
	BevyVersions []string `toml:"bevy_versions" json:"bevy_versions,omitempty"`

	// OriginalPath is the descriptor file this asset was read from. It
	// is not part of the descriptor format.
	OriginalPath string `toml:"-" json:"-"`
}

// Section is a directory of assets and nested sections.
type Section struct {
	Name              string      `json:"name"`
	Content           []AssetNode `json:"content"`
	Template          string      `json:"template,omitempty"`
	Header            string      `json:"header,omitempty"`
	Order             *int        `json:"order,omitempty"`
	SortOrderReversed bool        `json:"sort_order_reversed"`
}

// AssetNode is a node in the catalog tree: either a *Section or an
// *Asset.
type AssetNode interface {
	NodeName() string
	NodeOrder() int
}

func (a *Asset) NodeName() string { return a.Name }
func (a *Asset) NodeOrder() int {
	if a.Order == nil {
		return defaultOrder
	}
	return *a.Order
}

func (s *Section) NodeName() string { return s.Name }
func (s *Section) NodeOrder() int {
	if s.Order == nil {
		return defaultOrder
	}
	return *s.Order
}

// ApplyMetadata merges resolved metadata into the asset. A nil metadata
// (skipped resolution) leaves the asset untouched; declared values always
// win over resolved ones.
func (a *Asset) ApplyMetadata(m *metadata.Metadata) {
	if m == nil {
		return
	}
	a.setLicense(m.License)
	a.setBevyVersion(m.BevyVersion)
}

// setLicense records a resolved license unless the descriptor already
// declares licenses. Registries encode multi-licensing as a single
// string, so it is split on " OR " into the ordered list the catalog
// uses.
func (a *Asset) setLicense(license string) {
	if a.Licenses != nil || license == "" {
		return
	}
	parts := strings.Split(license, " OR ")
	licenses := make([]string, len(parts))
	for i, p := range parts {
		licenses[i] = strings.TrimSpace(p)
	}
	a.Licenses = licenses
}

func (a *Asset) setBevyVersion(version string) {
	if a.BevyVersions != nil || version == "" {
		return
	}
	a.BevyVersions = []string{version}
}
