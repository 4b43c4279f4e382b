// Command seed loads the bundled inventory into a record store.
//
// With -out it writes the bundled CSV to a file and exits. Otherwise it
// appends every bundled record to the backend selected by STORE_BACKEND.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"ecostock/internal/config"
	"ecostock/internal/dataset"
	"ecostock/internal/repository"
)

func main() {
	out := flag.String("out", "", "write the bundled CSV to this path instead of seeding the configured store")
	force := flag.Bool("force", false, "seed even when the store already holds records")
	flag.Parse()

	if err := run(*out, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out string, force bool) error {
	if out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		if err := os.WriteFile(out, dataset.Raw(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Printf("Wrote bundled inventory to %s\n", out)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger, "seed")

	ctx := context.Background()
	repo, closeRepo, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	if !force {
		existing, err := repo.LoadAll(ctx)
		if err == nil && len(existing) > 0 {
			logger.Info().Int("records", len(existing)).Msg("store already seeded, use -force to append anyway")
			return nil
		}
	}

	records, err := dataset.Default()
	if err != nil {
		return err
	}

	for _, rec := range records {
		if err := repo.Append(ctx, rec); err != nil {
			return fmt.Errorf("failed to seed %s: %w", rec.Product, err)
		}
	}

	logger.Info().
		Str("backend", cfg.Store.Backend).
		Int("records", len(records)).
		Msg("store seeded")
	return nil
}
