// Package journal records the outcome of every processed receipt in a SQL table, so
// later runs can skip receipts that were already written to the ledger.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `CREATE TABLE IF NOT EXISTS receipt_journal (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	path         TEXT NOT NULL,
	sha256       TEXT NOT NULL,
	status       TEXT NOT NULL,
	vendor       TEXT NOT NULL DEFAULT '',
	expense_date TEXT NOT NULL DEFAULT '',
	amount       TEXT NOT NULL DEFAULT '',
	confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	processed_at TEXT NOT NULL
)`

const schemaIndex = `CREATE INDEX IF NOT EXISTS receipt_journal_sha256_idx ON receipt_journal (sha256, status)`

// Entry is one journal row.
type Entry struct {
	ID          string
	RunID       string
	Path        string
	SHA256      string
	Status      constants.OutcomeStatus
	Vendor      string
	Date        string // YYYY-MM-DD or ""
	Amount      string // two decimals or ""
	Confidence  float64
	Error       string
	ProcessedAt time.Time
}

type Journal struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect dialect
	logger  *slog.Logger
}

// Open connects and creates the table when missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, common.NewAppError(common.CodeJournal, "journal dsn is required", common.ErrInvalidInput)
	}
	db, pool, d, err := open(ctx, cfg, logger)
	if err != nil {
		return nil, common.NewAppError(common.CodeJournal, "opening journal", fmt.Errorf("%w: %w", common.ErrJournal, err))
	}
	j := &Journal{db: db, pool: pool, dialect: d, logger: logger}
	for _, stmt := range []string{schema, schemaIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			j.Close()
			return nil, common.NewAppError(common.CodeJournal, "creating journal table", fmt.Errorf("%w: %w", common.ErrJournal, err))
		}
	}
	return j, nil
}

// Close closes the database connections gracefully
func (j *Journal) Close() {
	if j.db != nil {
		if err := j.db.Close(); err != nil {
			j.logger.Error("failed to close journal", "error", err)
		}
	}
	if j.pool != nil {
		j.pool.Close()
	}
}

// Record inserts e, filling ID and ProcessedAt when empty.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now()
	}
	e.ProcessedAt = e.ProcessedAt.UTC()

	_, err := j.db.ExecContext(ctx, j.dialect.bind(`INSERT INTO receipt_journal
		(id, run_id, path, sha256, status, vendor, expense_date, amount, confidence, error, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.RunID, e.Path, e.SHA256, string(e.Status), e.Vendor, e.Date, e.Amount,
		e.Confidence, e.Error, e.ProcessedAt.Format(timeLayout),
	)
	if err != nil {
		return e, fmt.Errorf("%w: insert: %w", common.ErrJournal, err)
	}
	return e, nil
}

// Processed reports whether a receipt with this content hash was fully written before.
func (j *Journal) Processed(ctx context.Context, sha256 string) (bool, error) {
	var n int
	err := j.db.QueryRowContext(ctx, j.dialect.bind(
		`SELECT COUNT(*) FROM receipt_journal WHERE sha256 = ? AND status = ?`),
		sha256, string(constants.StatusOK),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: lookup: %w", common.ErrJournal, err)
	}
	return n > 0, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, j.dialect.bind(`SELECT
		id, run_id, path, sha256, status, vendor, expense_date, amount, confidence, error, processed_at
		FROM receipt_journal ORDER BY processed_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", common.ErrJournal, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			status string
			at     string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Path, &e.SHA256, &status, &e.Vendor, &e.Date,
			&e.Amount, &e.Confidence, &e.Error, &at); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", common.ErrJournal, err)
		}
		e.Status = constants.OutcomeStatus(status)
		if e.ProcessedAt, err = time.Parse(timeLayout, at); err != nil {
			j.logger.Warn("unparsable journal timestamp", "id", e.ID, "value", at)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
