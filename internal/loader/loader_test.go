package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcfdigital/mediareport/internal/config"
	"github.com/bcfdigital/mediareport/internal/models"
	"github.com/bcfdigital/mediareport/internal/warehouse"
)

type fakeWarehouse struct {
	admanager []warehouse.Row
	metaAds   []warehouse.Row
	err       error
}

func (f *fakeWarehouse) Run(_ context.Context, sql string) ([]warehouse.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	if strings.Contains(sql, "admanager_universal") {
		return f.admanager, nil
	}
	return f.metaAds, nil
}

type fixedRate float64

func (r fixedRate) Rate(context.Context) float64 { return float64(r) }

func newLoader(wh warehouse.Client, rate float64) *Loader {
	cfg := config.Config{
		ProjectID:      "proj",
		MetaAdsTable:   "facebook_ads_data.campaign_insights",
		AdManagerTable: "ad_manager.admanager_universal",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(wh, fixedRate(rate), log, cfg)
}

func window() (time.Time, time.Time) {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
}

func load(t *testing.T, wh warehouse.Client, rate float64) ([]models.PerformanceRecord, error) {
	t.Helper()
	start, end := window()
	return newLoader(wh, rate).Load(context.Background(), start, end)
}

func TestLoadReconcilesBothFeeds(t *testing.T) {
	wh := &fakeWarehouse{
		admanager: []warehouse.Row{{
			"date": "2024-03-01", "country": "BR", "domain": "news.example.com",
			"network_code": "123", "campaign": " X ",
			"impressions": int64(100), "clicks": int64(10), "revenue": 10.0,
		}},
		metaAds: []warehouse.Row{{
			"date": "2024-03-01", "campaign": "x",
			"impressions": int64(50), "clicks": int64(5), "cost": 20.0,
			"leads": int64(3), "messages": int64(1),
		}},
	}

	recs, err := load(t, wh, 5.0)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, models.SourceBoth, r.Source)
	assert.Equal(t, "x", r.CampaignKey)
	assert.Equal(t, int64(150), r.Impressions)
	assert.Equal(t, int64(15), r.Clicks)
	assert.InDelta(t, 20.0, r.Cost, 1e-9)
	assert.InDelta(t, 50.0, r.Revenue, 1e-9) // 10 USD * 5.0
	assert.Equal(t, int64(3), r.Leads)
	assert.Equal(t, int64(1), r.Messages)
	assert.Equal(t, "BR", r.Country)
	assert.Equal(t, "news.example.com", r.Domain)
}

func TestLoadJoinVolumeIsCommutative(t *testing.T) {
	a := warehouse.Row{"date": "2024-03-01", "campaign": "x", "impressions": int64(100), "revenue": 1.0}
	b := warehouse.Row{"date": "2024-03-01", "campaign": "x", "impressions": int64(50), "cost": 2.0}

	joined, err := load(t, &fakeWarehouse{admanager: []warehouse.Row{a}, metaAds: []warehouse.Row{b}}, 1)
	require.NoError(t, err)
	onlyA, err := load(t, &fakeWarehouse{admanager: []warehouse.Row{a}}, 1)
	require.NoError(t, err)
	onlyB, err := load(t, &fakeWarehouse{metaAds: []warehouse.Row{b}}, 1)
	require.NoError(t, err)

	require.Len(t, joined, 1)
	assert.Equal(t, onlyA[0].Impressions+onlyB[0].Impressions, joined[0].Impressions)
}

func TestLoadSingleFeedRowsKeepDefaults(t *testing.T) {
	wh := &fakeWarehouse{
		admanager: []warehouse.Row{{"date": "2024-03-02", "campaign": "solo-a", "impressions": int64(10), "revenue": 2.0}},
		metaAds:   []warehouse.Row{{"date": "2024-03-03", "campaign": "solo-b", "cost": 7.5, "leads": int64(2)}},
	}

	recs, err := load(t, wh, 5.0)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	a, b := recs[0], recs[1]
	assert.Equal(t, models.SourceAdManager, a.Source)
	assert.Equal(t, 0.0, a.Cost)
	assert.Equal(t, int64(0), a.Leads)
	assert.Equal(t, models.Unknown, a.Country)

	assert.Equal(t, models.SourceMetaAds, b.Source)
	assert.Equal(t, 0.0, b.Revenue)
	assert.Equal(t, models.Unknown, b.Domain)
	assert.Equal(t, models.Unknown, b.NetworkCode)
}

func TestLoadKeylessRowsNeverMerge(t *testing.T) {
	wh := &fakeWarehouse{
		admanager: []warehouse.Row{{"date": "2024-03-01", "impressions": int64(100), "revenue": 1.0}},
		metaAds:   []warehouse.Row{{"date": "2024-03-01", "cost": 5.0}},
	}

	recs, err := load(t, wh, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, models.SourceAdManager, recs[0].Source)
	assert.Equal(t, models.SourceMetaAds, recs[1].Source)
}

func TestLoadCoercesMalformedValues(t *testing.T) {
	wh := &fakeWarehouse{
		metaAds: []warehouse.Row{{
			"date":        "2024-03-01",
			"campaign":    "x",
			"impressions": "1200", // numeric as string
			"clicks":      nil,    // missing
			"cost":        "not-a-number",
			"leads":       3.0, // float from a drifted schema
		}},
	}

	recs, err := load(t, wh, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, int64(1200), r.Impressions)
	assert.Equal(t, int64(0), r.Clicks)
	assert.Equal(t, 0.0, r.Cost)
	assert.Equal(t, int64(3), r.Leads)
}

func TestLoadSkipsRowsWithoutDate(t *testing.T) {
	wh := &fakeWarehouse{
		metaAds: []warehouse.Row{
			{"date": "garbage", "campaign": "x", "cost": 5.0},
			{"date": "2024-03-01", "campaign": "y", "cost": 1.0},
		},
	}

	recs, err := load(t, wh, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "y", recs[0].CampaignKey)
}

func TestLoadQueryFailureReturnsEmptyAndError(t *testing.T) {
	recs, err := load(t, &fakeWarehouse{err: errors.New("bigquery: permission denied")}, 1)
	assert.Error(t, err)
	assert.Empty(t, recs)
}

func TestLoadMergesDuplicateFeedARows(t *testing.T) {
	// same (date, campaign) from two domains: counters fold, conflicting
	// dimensions collapse to unknown
	wh := &fakeWarehouse{
		admanager: []warehouse.Row{
			{"date": "2024-03-01", "campaign": "x", "domain": "a.com", "country": "BR", "impressions": int64(10), "revenue": 1.0},
			{"date": "2024-03-01", "campaign": "x", "domain": "b.com", "country": "BR", "impressions": int64(20), "revenue": 2.0},
		},
	}

	recs, err := load(t, wh, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(30), recs[0].Impressions)
	assert.InDelta(t, 3.0, recs[0].Revenue, 1e-9)
	assert.Equal(t, "BR", recs[0].Country)
	assert.Equal(t, models.Unknown, recs[0].Domain)
}

func TestLoadAcceptsTimeValuedDates(t *testing.T) {
	wh := &fakeWarehouse{
		metaAds: []warehouse.Row{{
			"date": time.Date(2024, 3, 5, 13, 45, 0, 0, time.UTC), "campaign": "x", "cost": 1.0,
		}},
	}

	recs, err := load(t, wh, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), recs[0].Date)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "camp-a", NormalizeKey("  CAMP-A "))
	assert.Equal(t, "", NormalizeKey("   "))
}

func TestQuerySQLScopesWindow(t *testing.T) {
	l := newLoader(&fakeWarehouse{}, 1)
	start, end := window()

	for _, sql := range []string{l.adManagerSQL(start, end), l.metaAdsSQL(start, end)} {
		assert.Contains(t, sql, "'2024-03-01' AND '2024-03-31'")
		assert.Contains(t, sql, "`proj.")
	}
}
