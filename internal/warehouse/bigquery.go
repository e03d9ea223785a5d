// Package warehouse wraps the analytic warehouse behind a small query
// interface so the loader can be tested without BigQuery.
package warehouse

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Row is one result row keyed by column name.
type Row map[string]bigquery.Value

// Client executes a query and returns its rows. May fail; callers degrade
// to an empty result rather than crash.
type Client interface {
	Run(ctx context.Context, sql string) ([]Row, error)
}

type BigQuery struct {
	cl *bigquery.Client
}

func NewBigQuery(ctx context.Context, projectID, credentialsFile string) (*BigQuery, error) {
	cl, err := bigquery.NewClient(ctx, projectID, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &BigQuery{cl: cl}, nil
}

func (b *BigQuery) Run(ctx context.Context, sql string) ([]Row, error) {
	it, err := b.cl.Query(sql).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery query: %w", err)
	}
	var rows []Row
	for {
		var vals map[string]bigquery.Value
		err := it.Next(&vals)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery read: %w", err)
		}
		rows = append(rows, Row(vals))
	}
	return rows, nil
}

func (b *BigQuery) Close() error { return b.cl.Close() }
