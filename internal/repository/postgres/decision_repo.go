package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaSQL string

var decisionColumns = []string{
	"year", "month", "user_name", "position", "tx_date", "merchant", "amount", "category", "subcategory",
}

// DecisionRepository implements domain.DecisionStore using PostgreSQL
type DecisionRepository struct {
	pool *pgxpool.Pool
}

// NewDecisionRepository creates a new DecisionRepository
func NewDecisionRepository(pool *pgxpool.Pool) *DecisionRepository {
	return &DecisionRepository{pool: pool}
}

// EnsureSchema creates the decision tables when they do not exist
func (r *DecisionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure decision schema: %w", err)
	}
	log.Info().Msg("Postgres decision schema ready")
	return nil
}

// Ping checks the database connection
func (r *DecisionRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Read returns the batch stored for (year, month, user) in its original order
func (r *DecisionRepository) Read(ctx context.Context, year, month int, user string) ([]domain.Decision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tx_date, merchant, amount, category, subcategory
		FROM decisions
		WHERE year = $1 AND month = $2 AND user_name = $3
		ORDER BY position`,
		int32(year), int32(month), user,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]domain.Decision, 0)
	for rows.Next() {
		var (
			date                  pgtype.Date
			merchant              string
			amount                pgtype.Numeric
			category, subCategory pgtype.Text
		)
		if err := rows.Scan(&date, &merchant, &amount, &category, &subCategory); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, rowToDecision(date, merchant, amount, category, subCategory))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return decisions, nil
}

// Write replaces the batch stored for the metadata's key. Concurrent writers of
// the same key are serialised by a transaction-scoped advisory lock.
func (r *DecisionRepository) Write(ctx context.Context, meta domain.StatementMetadata, decisions []domain.Decision) error {
	rows := make([][]interface{}, 0, len(decisions))
	for i, d := range decisions {
		amount, err := decimalToPgNumeric(d.Line.Amount)
		if err != nil {
			return fmt.Errorf("decision %d amount: %w", i, err)
		}
		var category, subCategory pgtype.Text
		if res, ok := d.Resolved(); ok {
			category = pgtype.Text{String: res.Category, Valid: true}
			subCategory = pgtype.Text{String: res.SubCategory, Valid: true}
		}
		rows = append(rows, []interface{}{
			int32(meta.Year), int32(meta.Month), meta.User, int32(i),
			timeToPgDate(d.Line.Date), d.Line.Merchant, amount, category, subCategory,
		})
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(meta)); err != nil {
		return fmt.Errorf("lock decision batch: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM decisions WHERE year = $1 AND month = $2 AND user_name = $3`,
		int32(meta.Year), int32(meta.Month), meta.User,
	); err != nil {
		return fmt.Errorf("delete decisions: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO decision_batches (year, month, user_name, statement_name, written_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (year, month, user_name) DO UPDATE
		SET statement_name = EXCLUDED.statement_name, written_at = EXCLUDED.written_at`,
		int32(meta.Year), int32(meta.Month), meta.User, meta.StatementName,
	); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"decisions"}, decisionColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy decisions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit decisions: %w", err)
	}
	return nil
}

func lockKey(meta domain.StatementMetadata) string {
	return fmt.Sprintf("decisions:%04d-%02d:%s", meta.Year, meta.Month, meta.User)
}

func rowToDecision(date pgtype.Date, merchant string, amount pgtype.Numeric, category, subCategory pgtype.Text) domain.Decision {
	line := domain.Line{
		Date:     pgDateToTime(date),
		Merchant: merchant,
		Amount:   pgNumericToDecimal(amount),
	}
	if category.Valid && subCategory.Valid {
		return domain.NewResolvedDecision(line, category.String, subCategory.String)
	}
	return domain.NewUnresolvedDecision(line)
}
