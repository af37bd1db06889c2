package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	"phm-catalog/internal/auth"
	catalog "phm-catalog/internal/catalog/domain"
	pgarchive "phm-catalog/internal/catalog/infrastructure/postgres"
	cataloghttp "phm-catalog/internal/catalog/interfaces/http"
	"phm-catalog/internal/catalog/memory"
	"phm-catalog/internal/ingest"
	"phm-catalog/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)
	ctx := context.Background()

	cat := memory.New()
	metrics.Init(cat.Len)

	var archive cataloghttp.Archiver
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}

		pg := pgarchive.NewArchive(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatalf("archive schema error: %v", err)
		}
		restored, err := restoreFromArchive(ctx, cat, pg, logger)
		if err != nil {
			logger.Fatalf("archive restore error: %v", err)
		}
		logger.Printf("restored %d records from archive", restored)
		archive = pg
	}

	if cfg.SpoolDir != "" {
		admitter := &archivingAdmitter{catalog: cat, archive: archive, ctx: ctx}
		results, err := ingest.Directory(ctx, cfg.SpoolDir, admitter, cfg.IngestWorkers)
		if err != nil {
			logger.Fatalf("spool ingest error: %v", err)
		}
		for _, result := range results {
			if result.Err != nil {
				logger.Printf("spool ingest rejected: path=%s err=%v violations=%d", result.Path, result.Err, len(result.Violations))
			}
		}
		logger.Printf("spool ingest finished: files=%d records=%d", len(results), cat.Len())
	}

	handler, err := cataloghttp.NewHandler(cat, archive, logger)
	if err != nil {
		logger.Fatalf("handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	middleware := auth.NewMiddleware([]byte(cfg.JWTSecret), auth.NewDefaultPolicy(
		[]string{"/healthz"},
		[]string{"/metrics"},
	))

	logger.Printf("catalog listening on %s (records=%d)", cfg.HTTPAddr, cat.Len())
	if err := http.ListenAndServe(cfg.HTTPAddr, middleware.Wrap(mux)); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}

// restoreFromArchive replays archived documents through the admission
// pipeline. Documents that no longer pass admission are logged and
// skipped rather than aborting startup.
func restoreFromArchive(ctx context.Context, cat *memory.Catalog, archive *pgarchive.Archive, logger *log.Logger) (int, error) {
	documents, err := archive.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, doc := range documents {
		if violations, err := cat.Admit(doc.Raw); err != nil {
			logger.Printf("archived record no longer admissible: id=%s err=%v violations=%d", doc.Identifier, err, len(violations))
			continue
		}
		restored++
	}
	return restored, nil
}

// archivingAdmitter admits into the catalog and mirrors accepted
// documents into the archive.
type archivingAdmitter struct {
	catalog *memory.Catalog
	archive cataloghttp.Archiver
	ctx     context.Context
}

func (a *archivingAdmitter) Admit(raw map[string]any) ([]catalog.Violation, error) {
	violations, err := a.catalog.Admit(raw)
	if err != nil {
		return violations, err
	}
	if a.archive != nil {
		if id, ok := raw["identifier"].(string); ok {
			if err := a.archive.Save(a.ctx, id, raw); err != nil {
				return violations, err
			}
		}
	}
	return violations, nil
}
