package models

import (
	"encoding/json"
	"math"
	"time"
)

// Business constants, centralized so every rollup uses the same rates.
const (
	FeeRate             = 0.17 // platform fee over revenue
	CommissionRate      = 0.03 // manager commission over revenue
	ReserveRate         = 0.10 // reserve fund over gross profit
	GoalIncreasePercent = 0.10 // monthly revenue goal uplift
)

// Source tags for reconciled records.
const (
	SourceAdManager = "admanager"
	SourceMetaAds   = "meta_ads"
	SourceBoth      = "admanager+meta_ads"
)

// Unknown fills categorical fields absent upstream.
const Unknown = "unknown"

// ManagerUnassigned marks records with no entry in the account map.
const ManagerUnassigned = "Unassigned"

// PerformanceRecord is the canonical per-day row after reconciling both
// feeds. Every numeric field is filled (zero default) and Revenue is always
// already converted to BRL.
type PerformanceRecord struct {
	Date        time.Time `json:"date"`
	Source      string    `json:"source"`
	Country     string    `json:"country"`
	Domain      string    `json:"domain"`
	NetworkCode string    `json:"network_code"`
	CampaignKey string    `json:"campaign_key"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Cost        float64   `json:"cost"`
	Revenue     float64   `json:"revenue"`
	Leads       int64     `json:"leads"`
	Messages    int64     `json:"messages"`
}

// BusinessMetrics is an immutable aggregate snapshot. ROI and ROAS may carry
// the undefined sentinel (NaN) when cost is zero with positive revenue; the
// sentinel serializes as null.
type BusinessMetrics struct {
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalCost        float64 `json:"total_cost"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalLeads       int64   `json:"total_leads"`
	TotalMessages    int64   `json:"total_messages"`
	NetProfit        float64 `json:"net_profit"`
	ROI              float64 `json:"roi"`
	ROAS             float64 `json:"roas"`
	PlatformFee      float64 `json:"platform_fee"`
	CPM              float64 `json:"cpm"`
	CPC              float64 `json:"cpc"`
	CTR              float64 `json:"ctr"`
	CPL              float64 `json:"cpl"`
}

func (m BusinessMetrics) MarshalJSON() ([]byte, error) {
	type alias BusinessMetrics
	return json.Marshal(struct {
		alias
		ROI  *float64 `json:"roi"`
		ROAS *float64 `json:"roas"`
	}{alias(m), nilIfNaN(m.ROI), nilIfNaN(m.ROAS)})
}

func nilIfNaN(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

// AttributedRecord is a PerformanceRecord plus its resolved manager.
type AttributedRecord struct {
	PerformanceRecord
	Manager string `json:"manager"`
}

// RankingRow is one group (manager or project) of a rollup table. Derived
// ratios are zero-normalized: rollup tables always render a number.
type RankingRow struct {
	Key            string  `json:"key"`
	Projects       int     `json:"projects"`
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Leads          int64   `json:"leads"`
	TotalCost      float64 `json:"total_cost"`
	TotalRevenue   float64 `json:"total_revenue"`
	GrossProfit    float64 `json:"gross_profit"`
	Commission     float64 `json:"commission"`
	ReserveFund    float64 `json:"reserve_fund"`
	NetProfitFinal float64 `json:"net_profit_final"`
	ROIPercent     float64 `json:"roi_percent"`
	ROAS           float64 `json:"roas"`
}
