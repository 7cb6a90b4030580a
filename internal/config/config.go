// Package config loads and validates lorestore configuration.
// Precedence: built-in defaults, then the YAML file, then LORESTORE_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "lorestore.yaml"

// Config is the complete lorestore configuration.
type Config struct {
	Version int         `yaml:"version"`
	Paths   PathsConfig `yaml:"paths"`
	Index   IndexConfig `yaml:"index"`
	Cache   CacheConfig `yaml:"cache"`
	Watch   WatchConfig `yaml:"watch"`
	Log     LogConfig   `yaml:"log"`
}

// PathsConfig locates the corpus and the data directory.
type PathsConfig struct {
	// DataDir holds all database files.
	DataDir string `yaml:"data_dir"`

	// CorpusPattern is the glob selecting corpus documents.
	CorpusPattern string `yaml:"corpus_pattern"`
}

// IndexConfig tunes chunking and retrieval.
type IndexConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// TopK is the default result bound for searches.
	TopK int `yaml:"top_k"`
}

// CacheConfig tunes the snippet cache on the search read path.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// WatchConfig tunes the corpus watcher.
type WatchConfig struct {
	// Debounce is how long to wait after the last file event before
	// triggering a reindex.
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir:       "data",
			CorpusPattern: "config/*.md",
		},
		Index: IndexConfig{
			ChunkSize:    900,
			ChunkOverlap: 120,
			TopK:         5,
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  30 * time.Second,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path. A missing file yields defaults;
// a present but malformed file is an error. Environment overrides are
// applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, storeerrors.New(storeerrors.ErrCodeConfigNotFound, "cannot read config file", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, storeerrors.New(storeerrors.ErrCodeConfigInvalid, "config file is not valid YAML", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from LORESTORE_* variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("LORESTORE_DATA_DIR"); v != "" {
		cfg.Paths.DataDir = v
	}
	if v := os.Getenv("LORESTORE_CORPUS_PATTERN"); v != "" {
		cfg.Paths.CorpusPattern = v
	}
	if v := os.Getenv("LORESTORE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LORESTORE_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.TopK = n
		}
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return storeerrors.New(storeerrors.ErrCodeConfigInvalid, "index.chunk_size must be positive", nil)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return storeerrors.New(storeerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("index.chunk_overlap must be in [0, %d)", c.Index.ChunkSize), nil)
	}
	if c.Index.TopK <= 0 {
		return storeerrors.New(storeerrors.ErrCodeConfigInvalid, "index.top_k must be positive", nil)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return storeerrors.New(storeerrors.ErrCodeConfigInvalid,
			"log.level must be one of debug, info, warn, error", nil)
	}
	return nil
}

// IndexDBPath is the location of the full-text index database.
func (c *Config) IndexDBPath() string {
	return filepath.Join(c.Paths.DataDir, "index.db")
}

// MemoryDBPath is the location of the event log database.
func (c *Config) MemoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "memory.db")
}

// RecallIndexPath is the location of the Bleve recall index.
func (c *Config) RecallIndexPath() string {
	return filepath.Join(c.Paths.DataDir, "recall.bleve")
}

// HistoryDBPath is the location of the message-history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// ThreadDBPath is the location of the thread-map database.
func (c *Config) ThreadDBPath() string {
	return filepath.Join(c.Paths.DataDir, "threads.db")
}

// LegacyThreadJSONPath is the pre-SQLite thread mapping file, migrated
// on startup when present.
func (c *Config) LegacyThreadJSONPath() string {
	return filepath.Join(c.Paths.DataDir, "threads.json")
}
