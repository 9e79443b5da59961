// Package postgres implements the pipeline's persistence: the
// readiness gate, the transactional batch upserts and the read surface
// the serving layer depends on.
package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the store connection parameters.
type Config struct {
	Name     string
	User     string
	Password string
	Host     string
	Port     int
	SSLMode  string

	// MaxConns caps the pool size; zero keeps the pgxpool default.
	MaxConns int32
}

// DSN renders the pool connection string.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	if c.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Store persists fetched records in PostgreSQL behind a shared
// connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Connect builds the connection pool. The database does not need to be
// reachable yet; WaitReady owns the first real round trip.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const createQuotesTable = `
CREATE TABLE IF NOT EXISTS quotes (
	symbol     text NOT NULL,
	date       date NOT NULL,
	open       double precision NOT NULL,
	high       double precision NOT NULL,
	low        double precision NOT NULL,
	close      double precision NOT NULL,
	volume     bigint NOT NULL,
	fetched_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (symbol, date)
)`

const createInsiderTradesTable = `
CREATE TABLE IF NOT EXISTS insider_trades (
	symbol           text NOT NULL,
	insider          text NOT NULL,
	relation         text NOT NULL,
	date             date NOT NULL,
	transaction_type text NOT NULL,
	owner_type       text NOT NULL,
	shares_traded    bigint NOT NULL,
	last_price       double precision,
	shares_held      bigint NOT NULL,
	fetched_at       timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (symbol, insider, date, transaction_type)
)`

// initSchema pings the database and creates missing tables. This is
// the operation the readiness gate retries until it succeeds.
func (s *Store) initSchema(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	for _, ddl := range []string{createQuotesTable, createInsiderTradesTable} {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
