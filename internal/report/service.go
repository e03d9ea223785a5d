// Package report runs the request-scoped pipeline (load, aggregate,
// attribute, rank, compare) and shapes the plain-data payloads the
// presentation layer renders.
package report

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/bcfdigital/mediareport/internal/attribution"
	"github.com/bcfdigital/mediareport/internal/compare"
	"github.com/bcfdigital/mediareport/internal/metrics"
	"github.com/bcfdigital/mediareport/internal/models"
	"github.com/bcfdigital/mediareport/internal/ranking"
)

type RecordLoader interface {
	Load(ctx context.Context, start, end time.Time) ([]models.PerformanceRecord, error)
}

type Service struct {
	loader RecordLoader
	maps   attribution.Source
	log    *slog.Logger
}

func NewService(l RecordLoader, maps attribution.Source, log *slog.Logger) *Service {
	return &Service{loader: l, maps: maps, log: log}
}

type OverviewReport struct {
	From     string                 `json:"from"`
	To       string                 `json:"to"`
	Current  models.BusinessMetrics `json:"current"`
	Previous models.BusinessMetrics `json:"previous"`
	Deltas   map[string]*float64    `json:"deltas"`
	Warnings []string               `json:"warnings,omitempty"`
}

type RankingReport struct {
	From     string              `json:"from"`
	To       string              `json:"to"`
	Rows     []models.RankingRow `json:"rows"`
	Totals   models.RankingRow   `json:"totals"`
	Warnings []string            `json:"warnings,omitempty"`
}

type DailyRow struct {
	Date        string  `json:"date"`
	Cost        float64 `json:"cost"`
	Revenue     float64 `json:"revenue"`
	GrossProfit float64 `json:"gross_profit"`
	Commission  float64 `json:"commission"`
	ROI         float64 `json:"roi"`
	ROAS        float64 `json:"roas"`
	Status      string  `json:"status"`
}

type DailyReport struct {
	From     string     `json:"from"`
	To       string     `json:"to"`
	Rows     []DailyRow `json:"rows"`
	Warnings []string   `json:"warnings,omitempty"`
}

type SiteRow struct {
	Domain       string  `json:"domain"`
	Revenue      float64 `json:"revenue"`
	Cost         float64 `json:"cost"`
	PlatformFee  float64 `json:"platform_fee"`
	NetRevenue   float64 `json:"net_revenue"`
	ROI          float64 `json:"roi"`
	ROAS         float64 `json:"roas"`
	SharePercent float64 `json:"share_percent"`
}

type SiteReport struct {
	From         string    `json:"from"`
	To           string    `json:"to"`
	Rows         []SiteRow `json:"rows"`
	TotalRevenue float64   `json:"total_revenue"`
	Warnings     []string  `json:"warnings,omitempty"`
}

type GoalReport struct {
	Month                string   `json:"month"`
	PreviousMonthRevenue float64  `json:"previous_month_revenue"`
	Goal                 float64  `json:"goal"`
	CurrentRevenue       float64  `json:"current_revenue"`
	ProgressPercent      *float64 `json:"progress_percent"`
	Remaining            float64  `json:"remaining"`
	Warnings             []string `json:"warnings,omitempty"`
}

// Overview aggregates the window plus the equal-length window before it and
// compares metric by metric.
func (s *Service) Overview(ctx context.Context, start, end time.Time) OverviewReport {
	var warns []string
	cur := s.loadOrEmpty(ctx, start, end, &warns)
	prevStart, prevEnd := compare.PreviousPeriod(start, end)
	prev := s.loadOrEmpty(ctx, prevStart, prevEnd, &warns)

	cm := metrics.Aggregate(cur)
	pm := metrics.Aggregate(prev)

	return OverviewReport{
		From:     day(start),
		To:       day(end),
		Current:  cm,
		Previous: pm,
		Deltas: map[string]*float64{
			"total_cost":        deltaOf(cm.TotalCost, pm.TotalCost),
			"total_revenue":     deltaOf(cm.TotalRevenue, pm.TotalRevenue),
			"total_clicks":      deltaOf(float64(cm.TotalClicks), float64(pm.TotalClicks)),
			"total_impressions": deltaOf(float64(cm.TotalImpressions), float64(pm.TotalImpressions)),
			"total_leads":       deltaOf(float64(cm.TotalLeads+cm.TotalMessages), float64(pm.TotalLeads+pm.TotalMessages)),
			"net_profit":        deltaOf(cm.NetProfit, pm.NetProfit),
			"roi":               deltaOf(cm.ROI, pm.ROI),
			"roas":              deltaOf(cm.ROAS, pm.ROAS),
			"platform_fee":      deltaOf(cm.PlatformFee, pm.PlatformFee),
			"cpm":               deltaOf(cm.CPM, pm.CPM),
			"cpc":               deltaOf(cm.CPC, pm.CPC),
			"ctr":               deltaOf(cm.CTR, pm.CTR),
			"cpl":               deltaOf(cm.CPL, pm.CPL),
		},
		Warnings: warns,
	}
}

// ManagerRanking attributes the window's records and rolls them up per
// manager, sorted by the chosen metric descending, totals row appended.
func (s *Service) ManagerRanking(ctx context.Context, start, end time.Time, sortMetric string) RankingReport {
	return s.rank(ctx, start, end, sortMetric, ranking.ByManager, "managers")
}

// ProjectRanking is the same rollup keyed by campaign (project) instead.
func (s *Service) ProjectRanking(ctx context.Context, start, end time.Time, sortMetric string) RankingReport {
	return s.rank(ctx, start, end, sortMetric, ranking.ByProject, "projects")
}

func (s *Service) rank(ctx context.Context, start, end time.Time, sortMetric string, sel ranking.KeySelector, label string) RankingReport {
	var warns []string
	recs := s.loadOrEmpty(ctx, start, end, &warns)
	attributed := attribution.Attribute(recs, s.accountMapOrEmpty(ctx, &warns))

	rows := ranking.RankBy(attributed, sel)
	ranking.SortBy(rows, sortMetric)
	return RankingReport{
		From:     day(start),
		To:       day(end),
		Rows:     rows,
		Totals:   ranking.Totals(rows, label),
		Warnings: warns,
	}
}

// Daily produces the day-by-day financial table. ROI is zero-normalized at
// this grain.
func (s *Service) Daily(ctx context.Context, start, end time.Time) DailyReport {
	var warns []string
	recs := s.loadOrEmpty(ctx, start, end, &warns)

	byDay := make(map[time.Time]*DailyRow)
	var order []time.Time
	for _, r := range recs {
		row, ok := byDay[r.Date]
		if !ok {
			row = &DailyRow{Date: day(r.Date)}
			byDay[r.Date] = row
			order = append(order, r.Date)
		}
		row.Cost += r.Cost
		row.Revenue += r.Revenue
	}

	rows := make([]DailyRow, 0, len(order))
	for _, d := range order {
		row := byDay[d]
		row.GrossProfit = row.Revenue - row.Cost
		row.Commission = row.Revenue * models.CommissionRate
		if row.Cost != 0 {
			row.ROI = row.GrossProfit / row.Cost * 100
			row.ROAS = row.Revenue / row.Cost
		}
		row.Status = "positive"
		if row.GrossProfit < 0 {
			row.Status = "negative"
		}
		rows = append(rows, *row)
	}
	return DailyReport{From: day(start), To: day(end), Rows: rows, Warnings: warns}
}

// SiteRevenue rolls ad-serving revenue up per domain, with each domain's
// share of the window's total. Ad-buying rows carry no domain and are left
// out; rows reconciled from both feeds keep the cost their campaign brought
// in. ROI is zero-normalized at this grain.
func (s *Service) SiteRevenue(ctx context.Context, start, end time.Time) SiteReport {
	var warns []string
	recs := s.loadOrEmpty(ctx, start, end, &warns)

	byDomain := make(map[string]*SiteRow)
	var order []string
	for _, r := range recs {
		if r.Source == models.SourceMetaAds {
			continue
		}
		row, ok := byDomain[r.Domain]
		if !ok {
			row = &SiteRow{Domain: r.Domain}
			byDomain[r.Domain] = row
			order = append(order, r.Domain)
		}
		row.Revenue += r.Revenue
		row.Cost += r.Cost
	}

	rep := SiteReport{From: day(start), To: day(end), Warnings: warns}
	rows := make([]SiteRow, 0, len(order))
	for _, d := range order {
		row := byDomain[d]
		row.PlatformFee = row.Revenue * models.FeeRate
		row.NetRevenue = row.Revenue - row.Cost - row.PlatformFee
		if row.Cost != 0 {
			row.ROI = (row.Revenue - row.Cost) / row.Cost * 100
			row.ROAS = row.Revenue / row.Cost
		}
		rep.TotalRevenue += row.Revenue
		rows = append(rows, *row)
	}
	if rep.TotalRevenue != 0 {
		for i := range rows {
			rows[i].SharePercent = rows[i].Revenue / rep.TotalRevenue * 100
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Revenue > rows[j].Revenue })
	rep.Rows = rows
	return rep
}

// Goal tracks the window's revenue against the monthly target: previous
// calendar month's revenue plus the fixed uplift. A zero previous month
// means no goal can be set.
func (s *Service) Goal(ctx context.Context, start, end time.Time) GoalReport {
	var warns []string
	cur := s.loadOrEmpty(ctx, start, end, &warns)

	pmStart, pmEnd := compare.PreviousMonth(start)
	prev := s.loadOrEmpty(ctx, pmStart, pmEnd, &warns)

	var curRevenue, prevRevenue float64
	for _, r := range cur {
		curRevenue += r.Revenue
	}
	for _, r := range prev {
		prevRevenue += r.Revenue
	}

	g := GoalReport{
		Month:                start.Format("2006-01"),
		PreviousMonthRevenue: prevRevenue,
		CurrentRevenue:       curRevenue,
		Warnings:             warns,
	}
	if prevRevenue > 0 {
		g.Goal = prevRevenue * (1 + models.GoalIncreasePercent)
		p := curRevenue / g.Goal * 100
		g.ProgressPercent = &p
		g.Remaining = g.Goal - curRevenue
	}
	return g
}

// loadOrEmpty degrades a failed source to zero volume: the report still
// renders, with the failure carried as a warning.
func (s *Service) loadOrEmpty(ctx context.Context, start, end time.Time, warns *[]string) []models.PerformanceRecord {
	recs, err := s.loader.Load(ctx, start, end)
	if err != nil {
		s.log.Warn("performance feed unavailable", slog.String("err", err.Error()),
			slog.String("from", day(start)), slog.String("to", day(end)))
		*warns = append(*warns, "performance data unavailable for "+day(start)+".."+day(end))
		return nil
	}
	return recs
}

func (s *Service) accountMapOrEmpty(ctx context.Context, warns *[]string) map[string]string {
	m, err := s.maps.AccountMap(ctx)
	if err != nil {
		s.log.Warn("account map unavailable, attributing all records to Unassigned",
			slog.String("err", err.Error()))
		*warns = append(*warns, "manager mapping unavailable")
		return nil
	}
	if len(m) == 0 {
		*warns = append(*warns, "manager mapping is empty")
	}
	return m
}

func deltaOf(current, previous float64) *float64 {
	if metrics.IsUndefined(current) || metrics.IsUndefined(previous) {
		return nil
	}
	return compare.DeltaPercent(current, previous)
}

func day(t time.Time) string { return t.Format("2006-01-02") }
