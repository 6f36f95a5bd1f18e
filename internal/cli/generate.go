package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/TimJentzsch/bevy-website/pkg/assets"
	"github.com/TimJentzsch/bevy-website/pkg/cache"
	"github.com/TimJentzsch/bevy-website/pkg/cratesdb"
	"github.com/TimJentzsch/bevy-website/pkg/integrations/github"
	"github.com/TimJentzsch/bevy-website/pkg/integrations/gitlab"
	"github.com/TimJentzsch/bevy-website/pkg/metadata"
)

const appName = "generate-assets"

func newGenerateCmd() *cobra.Command {
	var (
		githubToken  string
		gitlabToken  string
		skipCratesDB bool
		dataDir      string
		cacheDir     string
		cacheTTL     time.Duration
		output       string
	)

	cmd := &cobra.Command{
		Use:   "generate <asset-dir>",
		Short: "Walk an asset directory and build the enriched catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			track := newProgress(logger)

			if githubToken == "" {
				githubToken = os.Getenv("GITHUB_TOKEN")
			}
			if gitlabToken == "" {
				gitlabToken = os.Getenv("GITLAB_TOKEN")
			}

			backend, err := newCacheBackend(cacheDir, cacheTTL)
			if err != nil {
				return err
			}
			defer backend.Close()

			clients := &metadata.Clients{}
			if githubToken != "" {
				clients.GitHub = github.NewClient(backend, githubToken, cacheTTL)
			} else {
				logger.Warn("GITHUB_TOKEN not set, github.com assets will keep their declared metadata only")
			}
			clients.GitLab = gitlab.NewClient(backend, gitlabToken, cacheTTL)

			if skipCratesDB {
				logger.Warn("crates.io snapshot disabled, crates.io assets will keep their declared metadata only")
			} else {
				db, err := cratesdb.Prepare(ctx, cratesdb.PrepareOptions{
					DataDir: dataDir,
					Logger:  logger,
				})
				if err != nil {
					return err
				}
				defer db.Close()
				clients.CratesDB = db
			}

			root, stats, err := assets.ParseAssets(ctx, args[0], assets.Options{
				Clients: clients,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			if err := writeCatalog(root, output); err != nil {
				return err
			}

			track.done(fmt.Sprintf("built catalog from %s", args[0]))
			fmt.Fprintln(cmd.ErrOrStderr(), renderSummary(stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&githubToken, "github-token", "", "GitHub API token (defaults to $GITHUB_TOKEN)")
	cmd.Flags().StringVar(&gitlabToken, "gitlab-token", "", "GitLab API token (defaults to $GITLAB_TOKEN)")
	cmd.Flags().BoolVar(&skipCratesDB, "skip-crates-db", false, "skip downloading and querying the crates.io dump")
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory for the crates.io snapshot")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "HTTP response cache directory (defaults to the user cache dir)")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", time.Hour, "HTTP response cache lifetime, 0 disables caching")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the catalog JSON to this file instead of stdout")

	return cmd
}

// newCacheBackend picks the response cache for the API clients. A zero
// TTL disables caching entirely.
func newCacheBackend(dir string, ttl time.Duration) (cache.Cache, error) {
	if ttl == 0 {
		return cache.NewNullCache(), nil
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, appName)
	}
	return cache.NewFileCache(dir)
}

func writeCatalog(root *assets.Section, output string) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0o644)
}
