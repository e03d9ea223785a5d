package attribution

import (
	"context"

	"github.com/bcfdigital/mediareport/internal/loader"
	"github.com/bcfdigital/mediareport/internal/models"
)

// NoSource stands in when no spreadsheet is configured; every record ends
// up Unassigned and the pipeline keeps running.
type NoSource struct{}

func (NoSource) AccountMap(ctx context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

// Attribute left-joins each record's campaign key against the account map.
// Unmatched records get the Unassigned sentinel instead of being dropped:
// incomplete mapping data must degrade gracefully, never lose volume. Every
// input record produces exactly one output record.
func Attribute(records []models.PerformanceRecord, accountMap map[string]string) []models.AttributedRecord {
	out := make([]models.AttributedRecord, 0, len(records))
	for _, r := range records {
		mgr := models.ManagerUnassigned
		if r.CampaignKey != "" {
			if m, ok := accountMap[loader.NormalizeKey(r.CampaignKey)]; ok {
				mgr = m
			}
		}
		out = append(out, models.AttributedRecord{PerformanceRecord: r, Manager: mgr})
	}
	return out
}
