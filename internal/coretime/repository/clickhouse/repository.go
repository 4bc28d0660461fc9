// Package clickhouse stores the market event archive.
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Metrics observes the outcome and duration of repository operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// Conn is the slice of the ClickHouse driver the repository uses.
	Conn interface {
		Query(ctx context.Context, query string, args ...any) (Rows, error)
		PrepareBatch(ctx context.Context, query string) (Batch, error)
	}

	// Rows is the row cursor returned by Conn.Query.
	Rows interface {
		Next() bool
		Scan(dest ...any) error
		Err() error
		Close() error
	}

	// Batch is a prepared batch insert.
	Batch interface {
		Append(v ...any) error
		Send() error
	}
)

// driverConn adapts the clickhouse-go connection to the narrow Conn surface.
type driverConn struct {
	conn driver.Conn
}

func (c driverConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return c.conn.Query(ctx, query, args...)
}

func (c driverConn) PrepareBatch(ctx context.Context, query string) (Batch, error) {
	return c.conn.PrepareBatch(ctx, query)
}

// Repository reads and writes the market_events table.
type Repository struct {
	conn    Conn
	metrics Metrics
}

// NewRepository opens a ClickHouse connection for the given DSN.
func NewRepository(dsn string, metrics Metrics) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("clickhouse dsn is required")
	}

	options, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	return &Repository{conn: driverConn{conn: conn}, metrics: metrics}, nil
}
