// Package metadata resolves license and supported-bevy-version metadata
// for catalog assets from external sources.
//
// An asset's link decides which backend answers for it: crates.io links go
// to the local registry snapshot, github.com and gitlab.com links go to
// the hosted repository APIs. The repository backends fetch the project's
// Cargo.toml and derive the metadata from it, emulating how crates.io
// itself presents license and dependency information.
package metadata

import "context"

// Metadata is the enrichment result for a single asset. Empty fields mean
// the source had nothing to say; they never overwrite declared values.
type Metadata struct {
	License     string
	BevyVersion string
}

// RepositoryClient is bound to one remote repository and can fetch files
// and a license classification from it.
type RepositoryClient interface {
	// FileContent returns the decoded text of the named file.
	FileContent(ctx context.Context, path string) (string, error)

	// License returns an SPDX-style license identifier. Backends without
	// a license endpoint return an error wrapping
	// [integrations.ErrUnsupported]; callers treat that as absent.
	License(ctx context.Context) (string, error)
}
