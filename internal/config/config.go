package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds application configuration.
type Config struct {
	JobsFile  string `toml:"jobs_file"`
	CachePath string `toml:"cache_path"`
	Workers   int    `toml:"workers"`

	// Modes, flag-only.
	List bool `toml:"-"`
	Docs bool `toml:"-"`
	GC   bool `toml:"-"`
}

// DefaultCachePath returns the default snapshot database path using
// XDG_CACHE_HOME.
func DefaultCachePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "urlwatch", "cache.db")
}

// DefaultJobsFile returns the default job list path using XDG_CONFIG_HOME.
func DefaultJobsFile() string {
	return filepath.Join(defaultConfigDir(), "urls.yaml")
}

// DefaultConfigFile returns the default TOML config file path.
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigDir(), "urlwatch.toml")
}

func defaultConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "urlwatch")
}

// FromFile reads configuration from a TOML file into cfg. A missing file is
// not an error; fields absent from the file keep their current values.
func FromFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	_, err := toml.DecodeFile(path, cfg)
	return err
}

// Load builds Config from the config file, flags, and environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	cfg := &Config{
		JobsFile:  DefaultJobsFile(),
		CachePath: DefaultCachePath(),
		Workers:   10,
	}

	configFile := flag.String("config", DefaultConfigFile(), "TOML config file path")
	jobsFile := flag.String("jobs", "", "YAML job list path")
	cachePath := flag.String("cache", "", "snapshot database path")
	workers := flag.Int("workers", 0, "number of retrieval workers")
	flag.BoolVar(&cfg.List, "list", false, "list jobs and exit")
	flag.BoolVar(&cfg.Docs, "docs", false, "print job kind documentation and exit")
	flag.BoolVar(&cfg.GC, "gc", false, "prune snapshots of removed jobs after the run")
	flag.Parse()

	if err := FromFile(*configFile, cfg); err != nil {
		return nil, err
	}

	// Flag overrides
	if *jobsFile != "" {
		cfg.JobsFile = *jobsFile
	}
	if *cachePath != "" {
		cfg.CachePath = *cachePath
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	// Env overrides
	if jobs := os.Getenv("URLWATCH_JOBS"); jobs != "" {
		cfg.JobsFile = jobs
	}
	if cache := os.Getenv("URLWATCH_CACHE"); cache != "" {
		cfg.CachePath = cache
	}
	if workers := os.Getenv("URLWATCH_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Workers = n
		}
	}

	return cfg, nil
}
