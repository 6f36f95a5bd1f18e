package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/TimJentzsch/bevy-website/pkg/metadata"
)

const categoryFile = "_category.toml"

// Options configures the catalog walk.
type Options struct {
	// Clients are the metadata backends. Nil disables enrichment
	// entirely; individual backends may also be absent (see
	// [metadata.Clients]).
	Clients *metadata.Clients

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Stats counts what the walk found and how enrichment went.
type Stats struct {
	Sections int
	Assets   int
	Resolved int // assets that got metadata from a backend
	Skipped  int // assets whose host had no configured backend
	Failed   int // assets whose resolution failed (logged, non-fatal)
}

// category mirrors the optional _category.toml inside a section
// directory.
type category struct {
	Order             *int `toml:"order"`
	SortOrderReversed bool `toml:"sort_order_reversed"`
}

// ParseAssets walks dir and builds the root catalog section, resolving
// metadata for each asset along the way.
//
// Resolution failures are logged per asset and never abort the walk; the
// asset simply keeps whatever metadata its descriptor declared. Errors
// reading or decoding the descriptors themselves are fatal.
func ParseAssets(ctx context.Context, dir string, opts Options) (*Section, *Stats, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	root := &Section{
		Name:     "Assets",
		Template: "assets.html",
		Header:   "Assets",
	}
	stats := &Stats{}
	if err := visitDir(ctx, dir, root, stats, opts); err != nil {
		return nil, nil, err
	}
	return root, stats, nil
}

func visitDir(ctx context.Context, dir string, section *Section, stats *Stats, opts Options) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == ".git" || name == ".github" {
			continue
		}
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			sub := &Section{Name: name}
			if err := readCategory(path, sub); err != nil {
				return err
			}
			if err := visitDir(ctx, path, sub, stats, opts); err != nil {
				return err
			}
			stats.Sections++
			section.Content = append(section.Content, sub)
			continue
		}

		if name == categoryFile || filepath.Ext(name) != ".toml" {
			continue
		}

		asset, err := decodeAsset(path)
		if err != nil {
			return err
		}
		stats.Assets++
		resolveAsset(ctx, asset, stats, opts)
		section.Content = append(section.Content, asset)
	}

	return nil
}

// resolveAsset enriches one asset, downgrading any resolution failure to
// a logged warning so the rest of the catalog still builds.
func resolveAsset(ctx context.Context, asset *Asset, stats *Stats, opts Options) {
	if opts.Clients == nil {
		stats.Skipped++
		return
	}

	opts.Logger.Info("getting extra metadata", "asset", asset.Name)
	meta, err := opts.Clients.Resolve(ctx, asset.Link)
	switch {
	case err != nil:
		stats.Failed++
		opts.Logger.Error("failed to get metadata", "asset", asset.Name, "err", err)
	case meta == nil:
		stats.Skipped++
	default:
		stats.Resolved++
		asset.ApplyMetadata(meta)
	}
}

func readCategory(dir string, section *Section) error {
	path := filepath.Join(dir, categoryFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var cat category
	if err := toml.Unmarshal(data, &cat); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	section.Order = cat.Order
	section.SortOrderReversed = cat.SortOrderReversed
	return nil
}

// decodeAsset reads one descriptor file. Unknown keys are rejected so
// typos in descriptors surface instead of silently dropping data.
func decodeAsset(path string) (*Asset, error) {
	var asset Asset
	md, err := toml.DecodeFile(path, &asset)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse %s: unknown keys %v", path, undecoded)
	}
	asset.OriginalPath = path
	return &asset, nil
}
