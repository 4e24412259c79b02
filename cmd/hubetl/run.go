package main

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/TheF1rstPancake/hubspot/internal/config"
	"github.com/TheF1rstPancake/hubspot/internal/ddl"
	"github.com/TheF1rstPancake/hubspot/internal/hubspot"
	"github.com/TheF1rstPancake/hubspot/internal/ingest"
	"github.com/TheF1rstPancake/hubspot/internal/metrics"
	"github.com/TheF1rstPancake/hubspot/internal/metrics/datadog"
	"github.com/TheF1rstPancake/hubspot/internal/metrics/prompush"
	"github.com/TheF1rstPancake/hubspot/internal/report"
	"github.com/TheF1rstPancake/hubspot/internal/schema"
	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// run performs one full pass: create the database, recreate the table, page
// through the API writing each page, then print the report to out.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, out io.Writer) error {
	job := cfg.Metrics.Job
	conn := cfg.DB.Conn()

	start := time.Now()
	err := prepareDatabase(ctx, cfg, log)
	metrics.RecordStep(job, "schema_database", err, time.Since(start))
	if err != nil {
		return err
	}

	db, err := storage.Open(ctx, conn, cfg.DB.Database)
	if err != nil {
		return errors.Wrap(err, "open target database")
	}
	defer db.Close()

	start = time.Now()
	err = schema.RecreateTables(ctx, db, log, ddl.Engagements(cfg.DB.Table))
	metrics.RecordStep(job, "schema_tables", err, time.Since(start))
	if err != nil {
		return err
	}

	client := hubspot.NewClient(hubspot.Config{
		BaseURL:   cfg.HubSpot.BaseURL,
		APIKey:    cfg.HubSpot.APIKey,
		Timeout:   cfg.HubSpot.Timeout,
		UserAgent: cfg.HubSpot.UserAgent,
	})
	sess := ingest.NewSession(client, db, ingest.Options{
		Table:  cfg.DB.Table,
		Job:    job,
		Logger: log,
	})
	stats, err := sess.Run(ctx)
	log.Info().
		Int("pages", stats.Pages).
		Int("fetched", stats.Fetched).
		Int64("inserted", stats.Inserted).
		Int("duplicates", stats.Duplicates).
		Msg("ingestion finished")
	if err != nil {
		return err
	}

	start = time.Now()
	rows, err := report.Run(ctx, db, cfg.DB.Table, out)
	metrics.RecordStep(job, "report", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRow(job, metrics.KindReported, int64(len(rows)))
	return nil
}

// prepareDatabase creates the target database through the admin database
// and closes that connection before the target is opened.
func prepareDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	admin, err := storage.Open(ctx, cfg.DB.Conn(), cfg.DB.AdminDatabase)
	if err != nil {
		return errors.Wrap(err, "open admin database")
	}
	defer admin.Close()
	return schema.EnsureDatabase(ctx, admin, cfg.DB.Database, log)
}

// setupMetrics installs the configured backend and returns the function
// that flushes it at exit.
func setupMetrics(cfg config.Metrics, log zerolog.Logger) (func(), error) {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:      cfg.DatadogAddr,
			Namespace: cfg.DatadogNamespace,
			Tags:      []string{"job:" + cfg.Job},
		})
	default:
		log.Debug().Str("backend", cfg.Backend).Msg("metrics disabled")
		return func() {}, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.SetBackend(b)
	log.Debug().Str("backend", cfg.Backend).Str("job", cfg.Job).Msg("metrics enabled")
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("metrics flush failed")
		}
	}, nil
}
