package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

type Config struct {
	DSN             string // postgres:// URL, or a SQLite file path
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// open returns a *sql.DB for either backend. For Postgres the pgx pool is returned too
// so Close can shut it down.
func open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, dialect, error) {
	if !isPostgresDSN(cfg.DSN) {
		logger.Info("opening sqlite journal", "path", cfg.DSN)
		if dir := filepath.Dir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, dialectSQLite, err
			}
		}
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, nil, dialectSQLite, err
		}
		// one writer; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, dialectSQLite, err
		}
		return db, nil, dialectSQLite, nil
	}

	logger.Info("connecting to journal database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse journal dsn", "error", err)
		return nil, nil, dialectPostgres, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "receipt-ledger"

	dialCtx, cancel := common.WithOptionalTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to journal database", "error", err)
		return nil, nil, dialectPostgres, err
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, nil, dialectPostgres, fmt.Errorf("ping journal database: %w", err)
	}

	// Wrap pool as *sql.DB so both backends share the query code
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to journal database")
	return db, pool, dialectPostgres, nil
}

// bind rewrites ? placeholders to $n for Postgres.
func (d dialect) bind(query string) string {
	if d != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
