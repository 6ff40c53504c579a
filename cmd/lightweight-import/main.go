package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/lightweight/internal/config"
	"github.com/claude/lightweight/internal/importer"
	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	path := flag.String("path", "", "JSON file or directory of JSON files to import (required)")
	dryRun := flag.Bool("dry-run", false, "report what would be imported without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: lightweight-import -config config.yaml -path <file or dir> [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*path)
	if err != nil {
		log.Error("import path does not exist", "path", *path, "error", err)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Error("lightweight-import writes to PostgreSQL; use `lw import` against a running server instead", "driver", cfg.Database.Driver)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode, no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	imp := importer.New(db, db, log, *dryRun)

	stats := &importer.Stats{}
	if info.IsDir() {
		stats, err = imp.ImportDir(ctx, *path)
	} else {
		var res *models.ImportResult
		res, err = imp.ImportFile(ctx, *path)
		if err == nil {
			stats.FilesProcessed++
			stats.Add(res)
		}
	}
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		db.Close()
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	if stats == nil {
		return
	}
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"sessions_inserted", stats.SessionsInserted,
		"sets_inserted", stats.SetsInserted,
		"exercises_created", len(stats.ExercisesCreated),
	)
	if len(stats.ExercisesCreated) > 0 {
		log.Info("created exercises", "names", stats.ExercisesCreated)
	}
	for _, w := range stats.Warnings {
		log.Warn("import warning", "warning", w)
	}
}
