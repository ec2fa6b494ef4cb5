package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"tcgsearch_api/config"
	"tcgsearch_api/pkg/logger"
)

const (
	maxRetries     = 10
	dbMaxOpenConns = 20
	retryDelay     = 5 * time.Second
)

type PostgresDatabase struct {
	cfg config.PostgresConfig
	log logger.Logger

	mu sync.Mutex
	db *sql.DB
}

func NewPgConnector(cfg config.PostgresConfig, log logger.Logger) *PostgresDatabase {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &PostgresDatabase{cfg: cfg, log: log.WithPrefix("[Postgres]")}
}

// Connect opens the pool once and retries the initial ping while the database starts up.
func (pg *PostgresDatabase) Connect(ctx context.Context) (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	maxOpen := pg.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = dbMaxOpenConns
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db, err := sql.Open("postgres", pg.cfg.GetConnectionString())
		if err == nil {
			db.SetMaxOpenConns(maxOpen)
			if err = db.PingContext(ctx); err == nil {
				pg.log.Log("Successfully connected to Postgres at %s:%s/%s", pg.cfg.Host, pg.cfg.Port, pg.cfg.DBName)
				pg.db = db
				return db, nil
			}
			db.Close()
		}
		lastErr = err
		pg.log.Log("Failed to connect to Postgres (attempt %d/%d): %v", i+1, maxRetries, err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to postgres: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

func (pg *PostgresDatabase) Ping(ctx context.Context) error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
