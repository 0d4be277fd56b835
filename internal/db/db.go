package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"funding_digest/internal/logger"
	"funding_digest/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Database archives delivered digests in PostgreSQL.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDB opens a connection pool for connString.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Database{Pool: pool}, nil
}

// Close releases the pool.
func (db *Database) Close() {
	db.Pool.Close()
}

// Ping checks that the database answers.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate creates the archive tables when missing.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Deliver stores one digest run with its records in a single transaction.
func (db *Database) Deliver(ctx context.Context, records []models.Record, count int) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int
	if err := tx.QueryRow(ctx, `
        INSERT INTO digest_runs (record_count)
        VALUES ($1)
        RETURNING id
    `, count).Scan(&runID); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, r := range records {
		var (
			symbol, unit *string
			value        *float64
			round        *string
		)
		if r.Amount != nil {
			s, u, v := r.Amount.Symbol, string(r.Amount.Unit), r.Amount.Value
			symbol, unit, value = &s, &u, &v
		}
		if r.Round != models.RoundNone {
			name := r.Round.String()
			round = &name
		}
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(`
            INSERT INTO funding_records (
                run_id, position, company, cluster_key,
                amount_symbol, amount_value, amount_unit, round, tags,
                age_days, coverage, title, link, source, summary, publication_date
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        `, runID, i, r.CompanyName, r.ClusterKey,
			symbol, value, unit, round, tags,
			r.AgeDays, r.Coverage, r.Article.Title, r.Article.Link, r.Article.Source, r.Article.Summary, r.Article.Published)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Log.WithFields(logger.Fields{
		"run_id":  runID,
		"records": len(records),
	}).Info("Digest archived")
	return nil
}

// LatestRecords returns up to limit records of the most recent run, in delivered order.
func (db *Database) LatestRecords(ctx context.Context, limit int) ([]models.Record, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT company, cluster_key, amount_symbol, amount_value, amount_unit, round, tags,
               age_days, coverage, title, link, source, summary, publication_date
        FROM funding_records
        WHERE run_id = (SELECT MAX(id) FROM digest_runs)
        ORDER BY position
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		var (
			r         models.Record
			symbol    *string
			value     *float64
			unit      *string
			round     *string
			summary   *string
			published *time.Time
		)
		if err := rows.Scan(
			&r.CompanyName, &r.ClusterKey, &symbol, &value, &unit, &round, &r.Tags,
			&r.AgeDays, &r.Coverage, &r.Article.Title, &r.Article.Link, &r.Article.Source, &summary, &published,
		); err != nil {
			return nil, err
		}
		if symbol != nil && value != nil && unit != nil {
			r.Amount = &models.Amount{Symbol: *symbol, Value: *value, Unit: models.Magnitude(*unit)}
		}
		if round != nil {
			r.Round, _ = models.ParseRound(*round)
		}
		if summary != nil {
			r.Article.Summary = *summary
		}
		r.Article.Published = published
		records = append(records, r)
	}
	return records, rows.Err()
}
