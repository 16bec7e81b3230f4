package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCachePath(t *testing.T) {
	t.Run("with XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/custom/cache")

		path := DefaultCachePath()
		expected := "/custom/cache/urlwatch/cache.db"
		if path != expected {
			t.Errorf("DefaultCachePath() = %q, want %q", path, expected)
		}
	})

	t.Run("without XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		os.Unsetenv("XDG_CACHE_HOME")

		path := DefaultCachePath()
		if !strings.HasSuffix(path, filepath.Join(".cache", "urlwatch", "cache.db")) {
			t.Errorf("DefaultCachePath() = %q, want suffix .cache/urlwatch/cache.db", path)
		}
	})
}

func TestDefaultJobsFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	path := DefaultJobsFile()
	expected := "/custom/config/urlwatch/urls.yaml"
	if path != expected {
		t.Errorf("DefaultJobsFile() = %q, want %q", path, expected)
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "urlwatch.toml")
	content := `
jobs_file = "/srv/watch/urls.yaml"
workers = 4
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := &Config{JobsFile: "default", CachePath: "default-cache", Workers: 10}
	if err := FromFile(path, cfg); err != nil {
		t.Fatalf("FromFile() error = %v", err)
	}

	if cfg.JobsFile != "/srv/watch/urls.yaml" {
		t.Errorf("JobsFile = %q, want %q", cfg.JobsFile, "/srv/watch/urls.yaml")
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	// Fields absent from the file keep their values.
	if cfg.CachePath != "default-cache" {
		t.Errorf("CachePath = %q, want %q", cfg.CachePath, "default-cache")
	}
}

func TestFromFile_Missing(t *testing.T) {
	cfg := &Config{JobsFile: "default"}
	if err := FromFile(filepath.Join(t.TempDir(), "missing.toml"), cfg); err != nil {
		t.Errorf("FromFile() error = %v, want nil for missing file", err)
	}
	if cfg.JobsFile != "default" {
		t.Errorf("JobsFile = %q, want untouched default", cfg.JobsFile)
	}
}
