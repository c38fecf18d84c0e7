// Package cli implements the cellgraph command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/buildinfo"
	"github.com/matzehuels/cellgraph/pkg/cache"
	"github.com/matzehuels/cellgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "cellgraph"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger and config loaded
// from the usual locations.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: LoadConfigOrDefault(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cellgraph",
		Short:        "Cellgraph analyzes typed dependency graphs",
		Long:         `Cellgraph is a CLI tool for building, traversing, and visualizing typed dependency graphs, such as spreadsheet cell references, with cycle detection and concurrent execution over dependency trees.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.traverseCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.execCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.formulaCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

// newCache selects the cache backend. Order of preference: explicit
// --no-cache, the configured Redis instance, then the local file cache.
// Backend failures degrade to a null cache rather than abort the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.Config != nil && c.Config.Cache.Backend == cacheBackendRedis {
		store, err := connectRedis(ctx, c.Config.Cache.Redis)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, falling back to file cache", "error", err)
		} else {
			return store, nil
		}
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// connectRedis dials Redis, retrying transient failures with backoff.
func connectRedis(ctx context.Context, cfg RedisConfig) (cache.Cache, error) {
	var store cache.Cache
	err := cache.RetryWithBackoff(ctx, func() error {
		s, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return cache.Retryable(err)
		}
		store = s
		return nil
	})
	return store, err
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/cellgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// parseTypes parses a comma-separated edge type filter. Empty means all types.
func parseTypes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
