package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaPercent(t *testing.T) {
	cases := []struct {
		name     string
		current  float64
		previous float64
		want     *float64
	}{
		{"both zero", 0, 0, f(0)},
		{"from zero is undefined", 5, 0, nil},
		{"to zero", 0, 5, f(-100)},
		{"no change", 42.5, 42.5, f(0)},
		{"up", 150, 100, f(50)},
		{"down", 50, 100, f(-50)},
		{"negative previous", 50, -100, f(-150)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DeltaPercent(c.current, c.previous)
			if c.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *c.want, *got, 1e-9)
		})
	}
}

func TestPreviousPeriod(t *testing.T) {
	start := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC) // 10 days

	ps, pe := PreviousPeriod(start, end)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ps)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), pe)
}

func TestPreviousPeriodSingleDay(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ps, pe := PreviousPeriod(d, d)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), ps)
	assert.Equal(t, ps, pe)
}

func TestPreviousMonth(t *testing.T) {
	first, last := PreviousMonth(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), last)

	first, last = PreviousMonth(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), last)
}

func f(v float64) *float64 { return &v }
