package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PoolOptions bounds the database/sql pool. The attach transaction holds
// one connection per commit, so MaxOpen caps concurrent bill commits too.
type PoolOptions struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

var DefaultPool = PoolOptions{MaxOpen: 10, MaxIdle: 4, MaxLifetime: 30 * time.Minute}

// PostgresDB is the system of record: rate slabs, entries, bills and the
// ownership columns the billing commit claims.
type PostgresDB struct {
	URL  string
	Pool PoolOptions
	Conn *sql.DB
}

func NewPostgresDB(url string) *PostgresDB {
	return &PostgresDB{URL: url, Pool: DefaultPool}
}

func (p *PostgresDB) Connect(ctx context.Context) error {
	conn, err := sql.Open("postgres", p.URL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	conn.SetMaxOpenConns(p.Pool.MaxOpen)
	conn.SetMaxIdleConns(p.Pool.MaxIdle)
	conn.SetConnMaxLifetime(p.Pool.MaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	p.Conn = conn
	return nil
}

func (p *PostgresDB) Disconnect(context.Context) error {
	if p.Conn == nil {
		return nil
	}
	return p.Conn.Close()
}
