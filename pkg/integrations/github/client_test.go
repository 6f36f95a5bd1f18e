package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/TimJentzsch/bevy-website/pkg/cache"
	"github.com/TimJentzsch/bevy-website/pkg/integrations"
)

func testClient(serverURL string) *Client {
	c := NewClient(cache.NewNullCache(), "test-token", time.Hour)
	c.baseURL = serverURL
	return c
}

func mustParse(t *testing.T, link string) *url.URL {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", link, err)
	}
	return u
}

func TestRepository(t *testing.T) {
	c := testClient("http://unused")

	repo, err := c.Repository(context.Background(), mustParse(t, "https://github.com/bevyengine/bevy"))
	if err != nil {
		t.Fatalf("Repository: %v", err)
	}
	if repo.owner != "bevyengine" || repo.repo != "bevy" {
		t.Errorf("owner/repo = %s/%s, want bevyengine/bevy", repo.owner, repo.repo)
	}
}

func TestRepositoryWrongHost(t *testing.T) {
	c := testClient("http://unused")

	if _, err := c.Repository(context.Background(), mustParse(t, "https://gitlab.com/owner/repo")); err == nil {
		t.Error("expected error for non-github host")
	}
}

func TestRepositoryShortPath(t *testing.T) {
	c := testClient("http://unused")

	if _, err := c.Repository(context.Background(), mustParse(t, "https://github.com/bevyengine")); err == nil {
		t.Error("expected error for link without repository segment")
	}
}

func TestFileContent(t *testing.T) {
	manifest := "[package]\nname = \"my-plugin\"\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if r.URL.Path != "/repos/owner/repo/contents/Cargo.toml" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(contentResponse{
			Encoding: "base64",
			Content:  base64.StdEncoding.EncodeToString([]byte(manifest)),
		})
	}))
	defer server.Close()

	c := testClient(server.URL)
	repo, err := c.Repository(context.Background(), mustParse(t, "https://github.com/owner/repo"))
	if err != nil {
		t.Fatalf("Repository: %v", err)
	}

	content, err := repo.FileContent(context.Background(), "Cargo.toml")
	if err != nil {
		t.Fatalf("FileContent: %v", err)
	}
	if content != manifest {
		t.Errorf("content = %q, want %q", content, manifest)
	}
}

func TestFileContentNotBase64(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(contentResponse{Encoding: "utf-8", Content: "plain"})
	}))
	defer server.Close()

	c := testClient(server.URL)
	repo, _ := c.Repository(context.Background(), mustParse(t, "https://github.com/owner/repo"))

	if _, err := repo.FileContent(context.Background(), "Cargo.toml"); !errors.Is(err, integrations.ErrNotBase64) {
		t.Errorf("error = %v, want ErrNotBase64", err)
	}
}

func TestFileContentNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(server.URL)
	repo, _ := c.Repository(context.Background(), mustParse(t, "https://github.com/owner/repo"))

	if _, err := repo.FileContent(context.Background(), "Cargo.toml"); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLicense(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/license" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		resp := licenseResponse{}
		resp.License.SPDXID = "MIT"
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := testClient(server.URL)
	repo, _ := c.Repository(context.Background(), mustParse(t, "https://github.com/owner/repo"))

	license, err := repo.License(context.Background())
	if err != nil {
		t.Fatalf("License: %v", err)
	}
	if license != "MIT" {
		t.Errorf("license = %q, want %q", license, "MIT")
	}
}

func TestFileContentCached(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(contentResponse{
			Encoding: "base64",
			Content:  base64.StdEncoding.EncodeToString([]byte("content")),
		})
	}))
	defer server.Close()

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	c := NewClient(backend, "token", time.Hour)
	c.baseURL = server.URL

	repo, _ := c.Repository(context.Background(), mustParse(t, "https://github.com/owner/repo"))
	for i := 0; i < 2; i++ {
		if _, err := repo.FileContent(context.Background(), "Cargo.toml"); err != nil {
			t.Fatalf("FileContent: %v", err)
		}
	}

	if calls != 1 {
		t.Errorf("server calls = %d, want 1 (second fetch should hit the cache)", calls)
	}
}
