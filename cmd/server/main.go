package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/bcfdigital/mediareport/internal/attribution"
	"github.com/bcfdigital/mediareport/internal/config"
	"github.com/bcfdigital/mediareport/internal/httpx"
	"github.com/bcfdigital/mediareport/internal/loader"
	"github.com/bcfdigital/mediareport/internal/rates"
	"github.com/bcfdigital/mediareport/internal/report"
	"github.com/bcfdigital/mediareport/internal/warehouse"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Missing warehouse credentials are the one fatal case: nothing can
	// render without the data source.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	bq, err := warehouse.NewBigQuery(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		logger.Error("warehouse client", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer bq.Close()

	rp := rates.NewProvider(rates.NewHTTPClient(cfg.HTTPTimeout), cfg.RateURL, logger)
	ld := loader.New(warehouse.NewCached(bq), rp, logger, cfg)

	var maps attribution.Source = attribution.NoSource{}
	if cfg.SpreadsheetID == "" {
		logger.Warn("no manager spreadsheet configured, attribution degrades to Unassigned")
	} else {
		ss, err := attribution.NewSheetsSource(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.SheetRange)
		if err != nil {
			logger.Warn("manager spreadsheet unavailable, attribution degrades to Unassigned",
				slog.String("err", err.Error()))
		} else {
			maps = attribution.NewCachedSource(ss)
		}
	}

	svc := report.NewService(ld, maps, logger)
	r := httpx.NewRouter(logger, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
