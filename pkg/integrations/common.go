// Package integrations provides the HTTP plumbing shared by the hosted
// repository API clients (GitHub and GitLab), including response caching
// via [cache.Cache] and the base64 content decoding both APIs use.
package integrations

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

// UserAgent identifies the generator to the remote APIs.
const UserAgent = "bevy-website-generate-assets"

var (
	// ErrNotFound is returned when a repository or file doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection
	// errors, unexpected status codes).
	ErrNetwork = errors.New("network error")

	// ErrUnsupported is returned when a backend doesn't implement a
	// capability, such as GitLab license fetching. Callers treat it as
	// absent metadata rather than a failure.
	ErrUnsupported = errors.New("not supported by this backend")

	// ErrNotBase64 is returned when a content endpoint responds with an
	// encoding other than base64.
	ErrNotBase64 = errors.New("content is not base64")
)

// NewHTTPClient creates an HTTP client with the standard API timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// DecodeContent decodes a file content response body. Both GitHub and
// GitLab return file contents base64-encoded with embedded newlines.
func DecodeContent(encoding, content string) (string, error) {
	if encoding != "base64" {
		return "", ErrNotBase64
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.ReplaceAll(content, "\n", "")))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PathSegments splits a URL path into its non-empty segments.
func PathSegments(u *url.URL) []string {
	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
