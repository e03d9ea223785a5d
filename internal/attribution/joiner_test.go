package attribution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcfdigital/mediareport/internal/models"
)

func record(campaign string) models.PerformanceRecord {
	return models.PerformanceRecord{
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Source:      models.SourceMetaAds,
		CampaignKey: campaign,
	}
}

func TestAttributeResolvesManager(t *testing.T) {
	recs := []models.PerformanceRecord{record("camp-a"), record("camp-b")}
	out := Attribute(recs, map[string]string{"camp-a": "Ana"})

	require.Len(t, out, 2)
	assert.Equal(t, "Ana", out[0].Manager)
	assert.Equal(t, models.ManagerUnassigned, out[1].Manager)
}

func TestAttributeNeverDropsRecords(t *testing.T) {
	recs := []models.PerformanceRecord{record("a"), record(""), record("b")}

	for _, m := range []map[string]string{nil, {}, {"a": "Ana"}} {
		out := Attribute(recs, m)
		assert.Len(t, out, len(recs))
	}
}

func TestAttributeNormalizesLookup(t *testing.T) {
	// loader keys are already folded, but attribution must tolerate a raw one
	out := Attribute([]models.PerformanceRecord{record("  CAMP-A ")}, map[string]string{"camp-a": "Ana"})
	require.Len(t, out, 1)
	assert.Equal(t, "Ana", out[0].Manager)
}

func TestAttributeEmptyKeyStaysUnassigned(t *testing.T) {
	out := Attribute([]models.PerformanceRecord{record("")}, map[string]string{"": "Nobody"})
	require.Len(t, out, 1)
	assert.Equal(t, models.ManagerUnassigned, out[0].Manager)
}

func TestNoSource(t *testing.T) {
	m, err := NoSource{}.AccountMap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m)
}
