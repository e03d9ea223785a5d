// Package attribution resolves each performance record to a responsible
// manager via an externally maintained account spreadsheet.
package attribution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/bcfdigital/mediareport/internal/loader"
)

// Source returns rows of (account label -> manager name). May be entirely
// unavailable; attribution then falls back to Unassigned for every record.
type Source interface {
	AccountMap(ctx context.Context) (map[string]string, error)
}

type SheetsSource struct {
	srv           *sheets.Service
	spreadsheetID string
	readRange     string
}

func NewSheetsSource(ctx context.Context, credentialsFile, spreadsheetID, readRange string) (*SheetsSource, error) {
	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsSource{srv: srv, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

// AccountMap reads the two-column mapping range. Account labels are
// normalized the same way campaign keys are, so the left join lines up.
func (s *SheetsSource) AccountMap(ctx context.Context) (map[string]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets read: %w", err)
	}
	m := make(map[string]string, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		acct, _ := row[0].(string)
		mgr, _ := row[1].(string)
		k := loader.NormalizeKey(acct)
		mgr = strings.TrimSpace(mgr)
		if k == "" || mgr == "" {
			continue
		}
		m[k] = mgr
	}
	return m, nil
}

// MapCacheTTL bounds the account-map cache.
const MapCacheTTL = time.Hour

const mapCacheKey = "account_map"

// CachedSource memoizes a successful account-map read.
type CachedSource struct {
	inner Source
	c     *cache.Cache
}

func NewCachedSource(inner Source) *CachedSource {
	return &CachedSource{inner: inner, c: cache.New(MapCacheTTL, 2*MapCacheTTL)}
}

func (s *CachedSource) AccountMap(ctx context.Context) (map[string]string, error) {
	if v, ok := s.c.Get(mapCacheKey); ok {
		return v.(map[string]string), nil
	}
	m, err := s.inner.AccountMap(ctx)
	if err != nil {
		return nil, err
	}
	s.c.Set(mapCacheKey, m, cache.DefaultExpiration)
	return m, nil
}
