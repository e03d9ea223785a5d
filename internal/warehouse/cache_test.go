package warehouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls int
	rows  []Row
	err   error
}

func (c *countingClient) Run(context.Context, string) ([]Row, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}

func TestCachedMemoizesBySQL(t *testing.T) {
	inner := &countingClient{rows: []Row{{"revenue": 1.0}}}
	w := NewCached(inner)

	r1, err := w.Run(context.Background(), "SELECT a")
	require.NoError(t, err)
	r2, err := w.Run(context.Background(), "SELECT a")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, r1, r2)

	_, err = w.Run(context.Background(), "SELECT b")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "distinct statements miss the cache")
}

func TestCachedNeverCachesFailures(t *testing.T) {
	inner := &countingClient{err: errors.New("quota exceeded")}
	w := NewCached(inner)

	_, err := w.Run(context.Background(), "SELECT a")
	assert.Error(t, err)

	inner.err = nil
	inner.rows = []Row{{"revenue": 2.0}}
	rows, err := w.Run(context.Background(), "SELECT a")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, inner.calls)
}
