// Package ranking rolls attributed records up by manager or by project and
// derives the financial columns of the ranking tables.
package ranking

import (
	"fmt"
	"sort"

	"github.com/bcfdigital/mediareport/internal/models"
)

// KeySelector extracts the grouping key from an attributed record.
type KeySelector func(models.AttributedRecord) string

func ByManager(r models.AttributedRecord) string { return r.Manager }

func ByProject(r models.AttributedRecord) string {
	if r.CampaignKey == "" {
		return models.Unknown
	}
	return r.CampaignKey
}

type group struct {
	row      models.RankingRow
	projects map[string]struct{}
}

// RankBy groups records by the selected key and derives the rollup columns.
// Rows come back in first-seen order; sorting is the caller's choice. ROI
// and ROAS are zero-normalized here because rollup tables always render a
// number.
func RankBy(records []models.AttributedRecord, selector KeySelector) []models.RankingRow {
	groups := make(map[string]*group)
	var order []string

	for _, r := range records {
		k := selector(r)
		g, ok := groups[k]
		if !ok {
			g = &group{row: models.RankingRow{Key: k}, projects: make(map[string]struct{})}
			groups[k] = g
			order = append(order, k)
		}
		g.row.Impressions += r.Impressions
		g.row.Clicks += r.Clicks
		g.row.Leads += r.Leads + r.Messages
		g.row.TotalCost += r.Cost
		g.row.TotalRevenue += r.Revenue
		if r.CampaignKey != "" {
			g.projects[r.CampaignKey] = struct{}{}
		}
	}

	out := make([]models.RankingRow, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.row.Projects = len(g.projects)
		derive(&g.row)
		out = append(out, g.row)
	}
	return out
}

func derive(row *models.RankingRow) {
	row.GrossProfit = row.TotalRevenue - row.TotalCost
	row.Commission = row.TotalRevenue * models.CommissionRate
	row.ReserveFund = row.GrossProfit * models.ReserveRate
	row.NetProfitFinal = row.GrossProfit - row.Commission - row.ReserveFund
	if row.TotalCost != 0 {
		row.ROIPercent = row.GrossProfit / row.TotalCost * 100
		row.ROAS = row.TotalRevenue / row.TotalCost
	} else {
		row.ROIPercent = 0
		row.ROAS = 0
	}
}

// SortBy orders rows by the named metric, descending, ties preserving
// insertion order. Unknown metric names fall back to net_profit_final.
func SortBy(rows []models.RankingRow, metric string) {
	sort.SliceStable(rows, func(i, j int) bool {
		return metricValue(rows[i], metric) > metricValue(rows[j], metric)
	})
}

func metricValue(r models.RankingRow, metric string) float64 {
	switch metric {
	case "total_revenue":
		return r.TotalRevenue
	case "total_cost":
		return r.TotalCost
	case "gross_profit":
		return r.GrossProfit
	case "commission":
		return r.Commission
	case "reserve_fund":
		return r.ReserveFund
	case "roi_percent":
		return r.ROIPercent
	case "roas":
		return r.ROAS
	case "impressions":
		return float64(r.Impressions)
	case "clicks":
		return float64(r.Clicks)
	case "leads":
		return float64(r.Leads)
	default:
		return r.NetProfitFinal
	}
}

// Totals builds the synthetic all-groups row appended under ranking tables.
// Additive columns sum; ROI and ROAS are recomputed from the summed totals.
func Totals(rows []models.RankingRow, label string) models.RankingRow {
	t := models.RankingRow{Key: fmt.Sprintf("%d %s", len(rows), label)}
	for _, r := range rows {
		t.Projects += r.Projects
		t.Impressions += r.Impressions
		t.Clicks += r.Clicks
		t.Leads += r.Leads
		t.TotalCost += r.TotalCost
		t.TotalRevenue += r.TotalRevenue
	}
	derive(&t)
	return t
}
