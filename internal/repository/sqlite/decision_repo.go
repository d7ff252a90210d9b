package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// DecisionRepository implements domain.DecisionStore on a local SQLite file
type DecisionRepository struct {
	db *sql.DB
}

// NewDecisionRepository opens (creating when needed) the database at dbPath and migrates it
func NewDecisionRepository(dbPath string) (*DecisionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", dbPath).Msg("SQLite decision store ready")
	return &DecisionRepository{db: db}, nil
}

// Close closes the database
func (r *DecisionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (r *DecisionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Read returns the batch stored for (year, month, user) in its original order
func (r *DecisionRepository) Read(ctx context.Context, year, month int, user string) ([]domain.Decision, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tx_date, merchant, amount, category, subcategory
		FROM decisions
		WHERE year = ? AND month = ? AND user = ?
		ORDER BY position`,
		year, month, user,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]domain.Decision, 0)
	for rows.Next() {
		var (
			date, merchant, amount string
			category, subCategory  sql.NullString
		)
		if err := rows.Scan(&date, &merchant, &amount, &category, &subCategory); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}

		d, err := toDecision(date, merchant, amount, category, subCategory)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return decisions, nil
}

// Write replaces the batch stored for the metadata's key in a single transaction
func (r *DecisionRepository) Write(ctx context.Context, meta domain.StatementMetadata, decisions []domain.Decision) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM decisions WHERE year = ? AND month = ? AND user = ?`,
		meta.Year, meta.Month, meta.User,
	); err != nil {
		return fmt.Errorf("delete decisions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO decision_batches (year, month, user, statement_name, written_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (year, month, user) DO UPDATE
		SET statement_name = excluded.statement_name, written_at = excluded.written_at`,
		meta.Year, meta.Month, meta.User, meta.StatementName, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO decisions (year, month, user, position, tx_date, merchant, amount, category, subcategory)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range decisions {
		var category, subCategory sql.NullString
		if res, ok := d.Resolved(); ok {
			category = sql.NullString{String: res.Category, Valid: true}
			subCategory = sql.NullString{String: res.SubCategory, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			meta.Year, meta.Month, meta.User, i,
			d.Line.Date.Format(domain.DateLayout), d.Line.Merchant, d.Line.Amount.String(),
			category, subCategory,
		); err != nil {
			return fmt.Errorf("insert decision %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decisions: %w", err)
	}
	return nil
}

func toDecision(date, merchant, amount string, category, subCategory sql.NullString) (domain.Decision, error) {
	txDate, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("stored amount %q: %w", amount, err)
	}

	line := domain.Line{Date: txDate, Merchant: merchant, Amount: value}
	if category.Valid && subCategory.Valid {
		return domain.NewResolvedDecision(line, category.String, subCategory.String), nil
	}
	return domain.NewUnresolvedDecision(line), nil
}
