// Package gitlab implements the repository metadata backend for
// gitlab.com links.
//
// GitLab's content API addresses repositories by numeric project id, so
// binding to a repository requires a search round-trip first to resolve
// the display name to an id and default branch. The API does not expose a
// license endpoint; License always reports the capability as unsupported.
package gitlab

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/TimJentzsch/bevy-website/pkg/cache"
	"github.com/TimJentzsch/bevy-website/pkg/integrations"
)

// Host is the link host this backend answers for.
const Host = "gitlab.com"

const defaultBaseURL = "https://gitlab.com/api/v4"

// Client provides access to the GitLab API. A token is accepted for parity
// with the GitHub backend but the endpoints used here don't require one.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitLab API client. Pass an empty token for
// unauthenticated requests.
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": integrations.UserAgent,
	}
	if token != "" {
		headers["PRIVATE-TOKEN"] = token
	}
	return &Client{
		Client:  integrations.NewClient(backend, "gitlab:", cacheTTL, headers),
		baseURL: defaultBaseURL,
	}
}

type projectResponse struct {
	ID            int    `json:"id"`
	DefaultBranch string `json:"default_branch"`
}

type contentResponse struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// Repository returns a client bound to the repository the link points at.
// The repository name is searched on the remote to capture its project id
// and default branch; an empty search result is an error.
func (c *Client) Repository(ctx context.Context, u *url.URL) (*RepoClient, error) {
	if u.Host != Host {
		return nil, fmt.Errorf("not a GitLab repository: %s", u)
	}
	segments := integrations.PathSegments(u)
	if len(segments) < 2 {
		return nil, fmt.Errorf("link has no owner/repository segments: %s", u)
	}
	name := segments[1]

	var projects []projectResponse
	err := c.Cached(ctx, "search/"+name, &projects, func() error {
		endpoint := fmt.Sprintf("%s/projects?search=%s", c.baseURL, url.QueryEscape(name))
		return c.Get(ctx, endpoint, &projects)
	})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("%w: failed to find gitlab project %s", integrations.ErrNotFound, name)
	}

	return &RepoClient{
		client:        c,
		id:            projects[0].ID,
		defaultBranch: projects[0].DefaultBranch,
	}, nil
}

// RepoClient is scoped to a single GitLab project.
type RepoClient struct {
	client        *Client
	id            int
	defaultBranch string
}

// FileContent fetches the named file from the project's default branch and
// returns its decoded text.
func (r *RepoClient) FileContent(ctx context.Context, path string) (string, error) {
	key := fmt.Sprintf("%d/files/%s@%s", r.id, path, r.defaultBranch)

	var resp contentResponse
	err := r.client.Cached(ctx, key, &resp, func() error {
		endpoint := fmt.Sprintf("%s/projects/%d/repository/files/%s?ref=%s",
			r.client.baseURL, r.id, url.PathEscape(path), url.QueryEscape(r.defaultBranch))
		return r.client.Get(ctx, endpoint, &resp)
	})
	if err != nil {
		return "", err
	}
	return integrations.DecodeContent(resp.Encoding, resp.Content)
}

// License always fails; GitLab has no license endpoint. Callers fall back
// to whatever the manifest declares.
func (r *RepoClient) License(ctx context.Context) (string, error) {
	return "", fmt.Errorf("license fetching %w", integrations.ErrUnsupported)
}
