// Package config loads orgtower configuration from a TOML file.
//
// All settings have working defaults, so a missing config file is not an
// error: the CLI runs with a file-backed cache and file-backed snapshots
// under the user's XDG directories, and the server listens on :8080.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// appName is used for config, cache and data directory names.
const appName = "orgtower"

// Backend names accepted in the cache and snapshots sections.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the root configuration.
type Config struct {
	Server    Server    `toml:"server"`
	Layout    Layout    `toml:"layout"`
	Cache     Cache     `toml:"cache"`
	Snapshots Snapshots `toml:"snapshots"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Layout configures layout defaults.
type Layout struct {
	Direction string `toml:"direction"`
}

// Cache configures the layout-position cache.
type Cache struct {
	Backend string `toml:"backend"` // "file", "redis" or "none"
	Dir     string `toml:"dir"`     // file backend; defaults to XDG cache dir

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Snapshots configures the named-snapshot store.
type Snapshots struct {
	Backend string `toml:"backend"` // "file" or "mongo"
	Dir     string `toml:"dir"`     // file backend; defaults to XDG data dir

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Layout: Layout{Direction: "TB"},
		Cache:  Cache{Backend: BackendFile},
		Snapshots: Snapshots{
			Backend:         BackendFile,
			MongoDatabase:   appName,
			MongoCollection: "snapshots",
		},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields [Default]; a malformed file is an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = defaultPath()
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// defaultPath returns ~/.config/orgtower/orgtower.toml, honoring
// XDG_CONFIG_HOME.
func defaultPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, appName+".toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appName + ".toml"
	}
	return filepath.Join(home, ".config", appName, appName+".toml")
}

// CacheDir returns the cache directory for the file backend, honoring
// XDG_CACHE_HOME.
func (c Cache) CacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// DataDir returns the snapshot directory for the file backend, honoring
// XDG_DATA_HOME.
func (s Snapshots) DataDir() (string, error) {
	if s.Dir != "" {
		return s.Dir, nil
	}
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "snapshots"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "snapshots"), nil
}
