// fabric-migrator converts Azure Data Factory ARM deployment templates into
// Microsoft Fabric Data Pipeline definitions. It runs either as a one-shot
// CLI or as a local HTTP service with persisted run history.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/catalog"
	"fabric-migrator/internal/common/logging"
	"fabric-migrator/internal/config"
	"fabric-migrator/internal/handlers"
	"fabric-migrator/internal/migration"
	"fabric-migrator/internal/report"
	"fabric-migrator/internal/server"
	"fabric-migrator/internal/storage"

	_ "fabric-migrator/internal/storage/postgres"
	_ "fabric-migrator/internal/storage/sqlite"
)

func main() {
	_ = godotenv.Load()

	templatePath := flag.String("template", "", "path to the ARM deployment template")
	mappingsPath := flag.String("mappings", "", "path to the connection mappings JSON file")
	outDir := flag.String("out", "./out", "directory the transformed pipelines are written to")
	library := flag.String("library", "", "variable library global parameters are re-addressed to")
	serve := flag.Bool("serve", false, "run the HTTP service instead of a one-shot migration")
	flag.Parse()

	cfg := config.Load()
	initLogging(cfg)
	defer logging.MustSync()

	if err := cfg.Validate(); err != nil {
		logging.Error("invalid configuration", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg)
	if err != nil {
		logging.Error("failed to open run store", err)
		os.Exit(1)
	}
	defer store.Close()

	if *serve {
		runServer(cfg, store)
		return
	}

	if *templatePath == "" {
		fmt.Fprintln(os.Stderr, "usage: fabric-migrator -template <file> [-mappings <file>] [-out <dir>] [-library <name>]")
		fmt.Fprintln(os.Stderr, "       fabric-migrator -serve")
		os.Exit(2)
	}

	if *library == "" {
		*library = cfg.VariableLibrary
	}
	if err := runOnce(cfg, store, *templatePath, *mappingsPath, *outDir, *library); err != nil {
		logging.Error("migration failed", err)
		os.Exit(1)
	}
}

func initLogging(cfg *config.Config) {
	logger, err := logging.NewZapLogger(logging.LogConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Output: os.Stderr,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	logging.SetGlobalLogger(logger)
}

func runServer(cfg *config.Config, store storage.Store) {
	h := handlers.New(store, cfg)
	srv := server.New(h.Router(), cfg.Port)
	if err := srv.Start(); err != nil {
		logging.Error("failed to start server", err)
		os.Exit(1)
	}
	logging.Info("server started", logging.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("shutdown failed", err)
	}
	logging.Info("server stopped")
}

func runOnce(cfg *config.Config, store storage.Store, templatePath, mappingsPath, outDir, library string) error {
	started := time.Now().UTC()

	template, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	var mappings map[string]string
	if mappingsPath != "" {
		data, err := os.ReadFile(mappingsPath)
		if err != nil {
			return fmt.Errorf("failed to read mappings: %w", err)
		}
		if mappings, err = catalog.LoadConnectionMappings(data); err != nil {
			return err
		}
	}

	comps, err := adf.ParseTemplate(template)
	if err != nil {
		return err
	}

	cat := catalog.New(comps, mappings, catalog.WithSupportedTypes(cfg.SupportedConnectors))
	engine := migration.NewEngine(cat, migration.WithLibrary(library))
	run := engine.TransformAll(comps.Pipelines)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, result := range run.OrderedResults() {
		doc := map[string]any{
			"name":       result.Pipeline.Name,
			"properties": result.Pipeline.Properties,
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode pipeline '%s': %w", result.Pipeline.Name, err)
		}
		path := filepath.Join(outDir, result.Pipeline.Name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write pipeline '%s': %w", result.Pipeline.Name, err)
		}
	}

	runID := uuid.NewString()
	summary := report.Build(runID, run)
	reportJSON, err := summary.JSON()
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "report.json"), reportJSON, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "report.md"), []byte(summary.Markdown()), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	status := storage.StatusCompleted
	if len(run.Diagnostics) > 0 {
		status = storage.StatusDegraded
	}
	if run.Order == nil && len(run.Results) > 0 {
		status = storage.StatusFailed
	}
	if err := run.Err(); err != nil {
		logging.Warn("run recorded error diagnostics", logging.Err(err))
	}
	record := &storage.Run{
		ID:          runID,
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
		Status:      status,
		Pipelines:   len(run.Results),
		Activities:  run.ActivityCount(),
		Diagnostics: len(run.Diagnostics),
		Report:      reportJSON,
	}
	if err := store.SaveRun(record); err != nil {
		return err
	}

	logging.Info("migration run complete",
		logging.String("run_id", runID),
		logging.String("status", status),
		logging.Int("pipelines", record.Pipelines),
		logging.Int("activities", record.Activities),
		logging.Int("diagnostics", record.Diagnostics))
	return nil
}
