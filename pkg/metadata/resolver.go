package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/TimJentzsch/bevy-website/pkg/cratesdb"
	"github.com/TimJentzsch/bevy-website/pkg/integrations"
	"github.com/TimJentzsch/bevy-website/pkg/integrations/github"
	"github.com/TimJentzsch/bevy-website/pkg/integrations/gitlab"
)

// ErrUnknownHost is returned when an asset links to a host no backend
// answers for.
var ErrUnknownHost = errors.New("unknown host")

// Clients holds the configured metadata backends. Every field is
// optional: a nil backend means assets linking to its host are skipped
// rather than resolved, which is how missing credentials or --skip-crates-db
// show up here.
//
// A Clients value is read-only during resolution and safe to reuse across
// assets.
type Clients struct {
	CratesDB *cratesdb.DB
	GitHub   *github.Client
	GitLab   *gitlab.Client
}

// Resolve inspects the asset link, dispatches to the backend matching its
// host and returns the resolved metadata.
//
// A nil result with a nil error means resolution was skipped: the host
// is recognized but its backend isn't configured, or the link has no host
// at all. Unrecognized hosts are an error.
func (c *Clients) Resolve(ctx context.Context, link string) (*Metadata, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, err
	}

	switch u.Host {
	case cratesdb.Host:
		if c.CratesDB == nil {
			return nil, nil
		}
		return c.resolveCrate(ctx, u)

	case github.Host:
		if c.GitHub == nil {
			return nil, nil
		}
		repo, err := c.GitHub.Repository(ctx, u)
		if err != nil {
			return nil, err
		}
		return resolveRepository(ctx, repo)

	case gitlab.Host:
		if c.GitLab == nil {
			return nil, nil
		}
		repo, err := c.GitLab.Repository(ctx, u)
		if err != nil {
			return nil, err
		}
		return resolveRepository(ctx, repo)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHost, link)
	}
}

// resolveCrate looks the crate up in the registry snapshot. The crate
// name is the second path segment of a crates.io link
// (https://crates.io/crates/<name>).
func (c *Clients) resolveCrate(ctx context.Context, u *url.URL) (*Metadata, error) {
	segments := integrations.PathSegments(u)
	if len(segments) < 2 {
		return nil, fmt.Errorf("link has no crate name segment: %s", u)
	}

	m, err := c.CratesDB.Lookup(ctx, segments[1])
	if err != nil {
		return nil, err
	}
	return &Metadata{License: m.License, BevyVersion: m.BevyReq}, nil
}

// resolveRepository derives metadata from the repository's Cargo.toml.
// The manifest's own license declaration wins; the backend's license
// endpoint is only consulted when the manifest declares nothing, and a
// backend without that capability just leaves the license absent.
func resolveRepository(ctx context.Context, repo RepositoryClient) (*Metadata, error) {
	content, err := repo.FileContent(ctx, "Cargo.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to get Cargo.toml: %w", err)
	}

	m, err := fromCargoManifest(content)
	if err != nil {
		return nil, err
	}

	if m.License == "" {
		if license, err := repo.License(ctx); err == nil {
			m.License = license
		}
	}
	return m, nil
}
