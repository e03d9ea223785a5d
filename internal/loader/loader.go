// Package loader fetches the two performance feeds for a date window and
// reconciles them into one canonical record set.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bcfdigital/mediareport/internal/config"
	"github.com/bcfdigital/mediareport/internal/models"
	"github.com/bcfdigital/mediareport/internal/warehouse"
)

type RateProvider interface {
	Rate(ctx context.Context) float64
}

type Loader struct {
	wh    warehouse.Client
	rates RateProvider
	log   *slog.Logger
	cfg   config.Config
}

func New(wh warehouse.Client, rates RateProvider, log *slog.Logger, cfg config.Config) *Loader {
	return &Loader{wh: wh, rates: rates, log: log, cfg: cfg}
}

// Load fetches both feeds for [start, end] and reconciles them. Date order
// is the caller's responsibility. On a feed query failure it returns
// (nil, err); callers treat the empty set as "no data" and keep rendering.
func (l *Loader) Load(ctx context.Context, start, end time.Time) ([]models.PerformanceRecord, error) {
	aRows, err := l.wh.Run(ctx, l.adManagerSQL(start, end))
	if err != nil {
		return nil, fmt.Errorf("ad manager feed: %w", err)
	}
	bRows, err := l.wh.Run(ctx, l.metaAdsSQL(start, end))
	if err != nil {
		return nil, fmt.Errorf("meta ads feed: %w", err)
	}

	rate := l.rates.Rate(ctx)
	recs := l.reconcile(aRows, bRows, rate)
	l.log.Debug("feeds reconciled",
		slog.Int("admanager_rows", len(aRows)),
		slog.Int("meta_ads_rows", len(bRows)),
		slog.Int("records", len(recs)))
	return recs, nil
}

func (l *Loader) adManagerSQL(start, end time.Time) string {
	return fmt.Sprintf(`SELECT
    date,
    country,
    domain,
    network_code,
    utm_campaign AS campaign,
    SUM(impressions) AS impressions,
    SUM(clicks) AS clicks,
    SUM(revenue) AS revenue
FROM `+"`%s.%s`"+`
WHERE date BETWEEN '%s' AND '%s'
GROUP BY date, country, domain, network_code, campaign`,
		l.cfg.ProjectID, l.cfg.AdManagerTable,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (l *Loader) metaAdsSQL(start, end time.Time) string {
	return fmt.Sprintf(`SELECT
    Date AS date,
    Campaign AS campaign,
    SUM(Impressions) AS impressions,
    SUM(Clicks) AS clicks,
    SUM(Spend) AS cost,
    SUM(Leads) AS leads,
    SUM(Messages) AS messages
FROM `+"`%s.%s`"+`
WHERE Date BETWEEN '%s' AND '%s'
GROUP BY date, campaign`,
		l.cfg.ProjectID, l.cfg.MetaAdsTable,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

type joinKey struct {
	date     time.Time
	campaign string
}

// reconcile performs the full outer join on (date, normalized campaign key).
// Rows present in both feeds are tagged SourceBoth with impressions and
// clicks summed; single-feed rows keep their own values with the other
// feed's fields at zero. Key-less rows cannot be correlated and pass through
// at their feed's own grain.
func (l *Loader) reconcile(aRows, bRows []warehouse.Row, rate float64) []models.PerformanceRecord {
	var out []*models.PerformanceRecord
	keyed := make(map[joinKey]*models.PerformanceRecord)
	skipped := 0

	add := func(r models.PerformanceRecord) *models.PerformanceRecord {
		p := &r
		out = append(out, p)
		return p
	}

	for _, row := range aRows {
		r, ok := l.adManagerRecord(row, rate)
		if !ok {
			skipped++
			continue
		}
		if r.CampaignKey == "" {
			add(r)
			continue
		}
		k := joinKey{r.Date, r.CampaignKey}
		ex, seen := keyed[k]
		if !seen {
			keyed[k] = add(r)
			continue
		}
		// Same key from the same feed twice: fold counters together and
		// collapse any conflicting dimension to the unknown sentinel.
		ex.Impressions += r.Impressions
		ex.Clicks += r.Clicks
		ex.Revenue += r.Revenue
		ex.Country = sameOrUnknown(ex.Country, r.Country)
		ex.Domain = sameOrUnknown(ex.Domain, r.Domain)
		ex.NetworkCode = sameOrUnknown(ex.NetworkCode, r.NetworkCode)
	}

	for _, row := range bRows {
		r, ok := l.metaAdsRecord(row)
		if !ok {
			skipped++
			continue
		}
		if r.CampaignKey == "" {
			add(r)
			continue
		}
		k := joinKey{r.Date, r.CampaignKey}
		ex, seen := keyed[k]
		if !seen {
			keyed[k] = add(r)
			continue
		}
		if ex.Source == models.SourceAdManager {
			ex.Source = models.SourceBoth
		}
		ex.Impressions += r.Impressions
		ex.Clicks += r.Clicks
		ex.Cost += r.Cost
		ex.Leads += r.Leads
		ex.Messages += r.Messages
	}

	if skipped > 0 {
		l.log.Warn("rows skipped for unparseable date", slog.Int("count", skipped))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].CampaignKey < out[j].CampaignKey
	})

	recs := make([]models.PerformanceRecord, len(out))
	for i, p := range out {
		recs[i] = *p
	}
	return recs
}

// adManagerRecord coerces one ad-serving feed row. Revenue arrives in USD
// and is converted here; it never leaves this package in foreign currency.
func (l *Loader) adManagerRecord(row warehouse.Row, rate float64) (models.PerformanceRecord, bool) {
	d, ok := asDate(row["date"])
	if !ok {
		return models.PerformanceRecord{}, false
	}
	return models.PerformanceRecord{
		Date:        d,
		Source:      models.SourceAdManager,
		Country:     asString(row["country"], models.Unknown),
		Domain:      asString(row["domain"], models.Unknown),
		NetworkCode: asString(row["network_code"], models.Unknown),
		CampaignKey: NormalizeKey(asString(row["campaign"], "")),
		Impressions: max0(asInt(row["impressions"])),
		Clicks:      max0(asInt(row["clicks"])),
		Revenue:     maxf(asFloat(row["revenue"])) * rate,
	}, true
}

func (l *Loader) metaAdsRecord(row warehouse.Row) (models.PerformanceRecord, bool) {
	d, ok := asDate(row["date"])
	if !ok {
		return models.PerformanceRecord{}, false
	}
	return models.PerformanceRecord{
		Date:        d,
		Source:      models.SourceMetaAds,
		Country:     models.Unknown,
		Domain:      models.Unknown,
		NetworkCode: models.Unknown,
		CampaignKey: NormalizeKey(asString(row["campaign"], "")),
		Impressions: max0(asInt(row["impressions"])),
		Clicks:      max0(asInt(row["clicks"])),
		Cost:        maxf(asFloat(row["cost"])),
		Leads:       max0(asInt(row["leads"])),
		Messages:    max0(asInt(row["messages"])),
	}, true
}

func sameOrUnknown(a, b string) string {
	if a == b {
		return a
	}
	return models.Unknown
}
