package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Coercion is centralized here: the feed queries have drifted over time and
// sometimes omit columns or return numerics as strings. Partial data beats
// dropped data, so everything coerces to a default instead of rejecting the
// row.

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asInt(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return int64(f)
	default:
		return 0
	}
}

func asString(v any, def string) string {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// asDate accepts the date shapes BigQuery hands back: time.Time for
// TIMESTAMP, civil.Date (a Stringer) for DATE, plain strings from older
// query variants.
func asDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return dayUTC(t), true
	case string:
		return parseDay(t)
	case fmt.Stringer:
		return parseDay(t.String())
	default:
		return time.Time{}, false
	}
}

func parseDay(s string) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeKey folds a campaign or account identifier to the shared join
// form: lower-case, trimmed.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func max0(i int64) int64 {
	if i < 0 {
		return 0
	}
	return i
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
