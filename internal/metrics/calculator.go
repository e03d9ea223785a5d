// Package metrics derives the business metrics snapshot from canonical
// records. Aggregate is a pure function: always recomputed, never updated
// incrementally.
package metrics

import (
	"math"

	"github.com/bcfdigital/mediareport/internal/models"
)

// Undefined is the sentinel for metrics with a zero denominator and a
// non-zero numerator. Distinct from zero and from an error; rendered as
// null at display time.
func Undefined() float64 { return math.NaN() }

func IsUndefined(f float64) bool { return math.IsNaN(f) }

// Aggregate sums the raw counters and derives every business metric.
// Messages always fold into the leads total for metric purposes while still
// being carried separately.
func Aggregate(recs []models.PerformanceRecord) models.BusinessMetrics {
	var m models.BusinessMetrics
	for _, r := range recs {
		m.TotalImpressions += r.Impressions
		m.TotalClicks += r.Clicks
		m.TotalCost += r.Cost
		m.TotalRevenue += r.Revenue
		m.TotalLeads += r.Leads
		m.TotalMessages += r.Messages
	}
	leadsCombined := m.TotalLeads + m.TotalMessages

	m.PlatformFee = m.TotalRevenue * models.FeeRate
	m.NetProfit = m.TotalRevenue - m.TotalCost - m.PlatformFee
	m.ROI = ratio(m.TotalRevenue-m.TotalCost, m.TotalCost) * 100
	m.ROAS = ratio(m.TotalRevenue, m.TotalCost)
	m.CPM = safeDiv(m.TotalCost, float64(m.TotalImpressions)) * 1000
	m.CPC = safeDiv(m.TotalCost, float64(m.TotalClicks))
	m.CTR = safeDiv(float64(m.TotalClicks), float64(m.TotalImpressions)) * 100
	m.CPL = safeDiv(m.TotalCost, float64(leadsCombined))
	return m
}

// ratio applies the zero-cost policy: undefined when the denominator is
// zero with a positive numerator, zero when both are zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		if num > 0 {
			return Undefined()
		}
		return 0
	}
	return num / den
}

// safeDiv zero-normalizes: volume ratios always render a number.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
