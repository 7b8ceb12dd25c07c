// Package cli implements the orgtower command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/orgtower/orgtower/internal/config"
	"github.com/orgtower/orgtower/pkg/buildinfo"
	"github.com/orgtower/orgtower/pkg/chart/layout"
	"github.com/orgtower/orgtower/pkg/org"
	"github.com/orgtower/orgtower/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "orgtower"

	// cacheTTL bounds how long computed positions stay reusable.
	cacheTTL = 7 * 24 * time.Hour
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
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and default config.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "orgtower",
		Short:        "Orgtower builds and edits organization charts",
		Long:         `Orgtower turns a JSON description of an organization into a laid-out chart, and lets you edit the structure interactively in the terminal or over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.config/orgtower/orgtower.toml)")

	// Register all subcommands
	root.AddCommand(c.newCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// newEngine creates the layout engine, wrapped in the configured cache
// unless caching is disabled.
func (c *CLI) newEngine(ctx context.Context, noCache bool) (layout.Engine, func(), error) {
	engine := layout.Engine(layout.NewGraphvizEngine())
	if noCache {
		return engine, func() {}, nil
	}
	cache, err := c.newCache(ctx)
	if err != nil {
		c.Logger.Debug("cache unavailable, continuing without", "error", err)
		return engine, func() {}, nil
	}
	cleanup := func() { _ = cache.Close() }
	return layout.Cached(engine, cache, cacheTTL), cleanup, nil
}

func (c *CLI) newCache(ctx context.Context) (store.Cache, error) {
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return store.NewNullCache(), nil
	case config.BackendRedis:
		return store.NewRedisCache(ctx, store.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
		})
	default:
		dir, err := c.Config.Cache.CacheDir()
		if err != nil {
			return nil, err
		}
		return store.NewFileCache(dir)
	}
}

// newSnapshots creates the configured snapshot store.
func (c *CLI) newSnapshots(ctx context.Context) (store.Snapshots, error) {
	if c.Config.Snapshots.Backend == config.BackendMongo {
		return store.NewMongoSnapshots(ctx, store.MongoConfig{
			URI:        c.Config.Snapshots.MongoURI,
			Database:   c.Config.Snapshots.MongoDatabase,
			Collection: c.Config.Snapshots.MongoCollection,
		})
	}
	dir, err := c.Config.Snapshots.DataDir()
	if err != nil {
		return nil, err
	}
	return store.NewFileSnapshots(dir)
}

// direction returns the configured default layout direction, falling back
// to top-bottom when the config value is unusable.
func (c *CLI) direction() layout.Direction {
	d := layout.Direction(c.Config.Layout.Direction)
	if d.Validate() != nil {
		return layout.DirectionTB
	}
	return d
}

// =============================================================================
// Model Loading
// =============================================================================

// loadModel reads an organization file, defaulting to structure.json in the
// current directory.
func loadModel(path string) (*org.Unit, string, error) {
	if path == "" {
		path = org.DefaultFilename
	}
	root, err := org.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("load organization %s: %w", path, err)
	}
	return root, path, nil
}
