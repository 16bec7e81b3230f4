package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ftruzzi/urlwatch/internal/browser"
	"github.com/ftruzzi/urlwatch/internal/cache"
	"github.com/ftruzzi/urlwatch/internal/config"
	"github.com/ftruzzi/urlwatch/internal/job"
	"github.com/ftruzzi/urlwatch/internal/report"
	"github.com/ftruzzi/urlwatch/internal/worker"
)

func main() {
	// Load .env if present; proxy variables may also be set there.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	registry := job.Default()

	if cfg.Docs {
		fmt.Print(registry.Document())
		return
	}

	jobs, err := job.LoadFile(registry, cfg.JobsFile)
	if err != nil {
		log.Fatalf("failed to load job list: %v", err)
	}

	if cfg.List {
		for i, j := range jobs {
			fmt.Printf("%3d: %s (%s, %s)\n", i+1, j.PrettyName(), j.Kind(), job.GUID(j))
		}
		return
	}

	store, err := cache.New(cfg.CachePath)
	if err != nil {
		log.Fatalf("failed to open snapshot cache: %v", err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.New().String()
	log.Printf("run %s: retrieving %d jobs with %d workers", runID, len(jobs), cfg.Workers)

	pool := worker.New(store, browser.New(), cfg.Workers)
	results := pool.Run(ctx, jobs)

	report.Write(os.Stdout, runID, results)

	if cfg.GC {
		keep := make([]string, len(jobs))
		for i, j := range jobs {
			keep[i] = job.GUID(j)
		}
		pruned, err := store.Prune(ctx, keep)
		if err != nil {
			log.Printf("warning: cache prune failed: %v", err)
		} else if pruned > 0 {
			log.Printf("pruned %d stale snapshots", pruned)
		}
	}

	for _, r := range results {
		if r.Outcome == worker.OutcomeError {
			os.Exit(1)
		}
	}
}
