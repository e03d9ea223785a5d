package config

import (
	"errors"
	"log/slog"
	"os"
	"time"
)

type Config struct {
	// warehouse
	CredentialsFile string
	ProjectID       string
	MetaAdsTable    string
	AdManagerTable  string

	// account mapping spreadsheet
	SpreadsheetID string
	SheetRange    string

	// exchange rate lookup
	RateURL string

	Port        string
	HTTPTimeout time.Duration
	LogLevel    slog.Level
}

func FromEnv() Config {
	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	return Config{
		CredentialsFile: envOr("GOOGLE_CREDENTIALS_FILE", "credentials/service-account.json"),
		ProjectID:       os.Getenv("BQ_PROJECT_ID"),
		MetaAdsTable:    envOr("BQ_META_ADS_TABLE", "facebook_ads_data.campaign_insights"),
		AdManagerTable:  envOr("BQ_AD_MANAGER_TABLE", "ad_manager.admanager_universal"),
		SpreadsheetID:   os.Getenv("MANAGER_SPREADSHEET_ID"),
		SheetRange:      envOr("MANAGER_SHEET_RANGE", "Contas!A2:B"),
		RateURL:         envOr("RATE_API_URL", "https://api.frankfurter.app/latest?from=USD&to=BRL"),
		Port:            envOr("PORT", "8080"),
		HTTPTimeout:     to,
		LogLevel:        lvl,
	}
}

// Validate catches the one fatal category: the pipeline cannot run without
// its warehouse configured. A missing spreadsheet only degrades attribution,
// so it is not checked here.
func (c Config) Validate() error {
	if c.ProjectID == "" {
		return errors.New("BQ_PROJECT_ID is required")
	}
	if _, err := os.Stat(c.CredentialsFile); err != nil {
		return errors.New("credentials file not found: " + c.CredentialsFile)
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
