// Package github implements the repository metadata backend for
// github.com links. It talks to the GitHub REST API, which exposes both a
// file content endpoint and a dedicated license endpoint.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/TimJentzsch/bevy-website/pkg/cache"
	"github.com/TimJentzsch/bevy-website/pkg/integrations"
)

// Host is the link host this backend answers for.
const Host = "github.com"

const defaultBaseURL = "https://api.github.com"

// Client provides access to the GitHub API. Requests carry a bearer token;
// unauthenticated rate limits are too low for a full catalog run.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with the given access token.
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"Accept":        "application/json",
		"User-Agent":    integrations.UserAgent,
		"Authorization": "Bearer " + token,
	}
	return &Client{
		Client:  integrations.NewClient(backend, "github:", cacheTTL, headers),
		baseURL: defaultBaseURL,
	}
}

// Repository returns a client bound to the repository the link points at.
// No network call is needed; the owner and repository name come straight
// from the link's path.
func (c *Client) Repository(ctx context.Context, u *url.URL) (*RepoClient, error) {
	if u.Host != Host {
		return nil, fmt.Errorf("not a GitHub repository: %s", u)
	}
	segments := integrations.PathSegments(u)
	if len(segments) < 2 {
		return nil, fmt.Errorf("link has no owner/repository segments: %s", u)
	}
	return &RepoClient{client: c, owner: segments[0], repo: segments[1]}, nil
}

// RepoClient is scoped to a single GitHub repository.
type RepoClient struct {
	client *Client
	owner  string
	repo   string
}

type contentResponse struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type licenseResponse struct {
	License struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

// FileContent fetches the named file from the repository's default branch
// and returns its decoded text.
func (r *RepoClient) FileContent(ctx context.Context, path string) (string, error) {
	key := fmt.Sprintf("%s/%s/contents/%s", r.owner, r.repo, path)

	var resp contentResponse
	err := r.client.Cached(ctx, key, &resp, func() error {
		endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", r.client.baseURL, r.owner, r.repo, path)
		return r.client.Get(ctx, endpoint, &resp)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", fmt.Errorf("%w: %s in %s/%s", err, path, r.owner, r.repo)
		}
		return "", err
	}
	return integrations.DecodeContent(resp.Encoding, resp.Content)
}

// License fetches the repository license as a single SPDX identifier.
// The API only ever reports one license, even for multi-licensed projects.
func (r *RepoClient) License(ctx context.Context) (string, error) {
	key := fmt.Sprintf("%s/%s/license", r.owner, r.repo)

	var resp licenseResponse
	err := r.client.Cached(ctx, key, &resp, func() error {
		endpoint := fmt.Sprintf("%s/repos/%s/%s/license", r.client.baseURL, r.owner, r.repo)
		return r.client.Get(ctx, endpoint, &resp)
	})
	if err != nil {
		return "", err
	}
	return resp.License.SPDXID, nil
}
