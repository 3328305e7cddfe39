package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallRecord is a stored call transcript awaiting classification.
type CallRecord struct {
	ID         int64
	Transcript string
}

// Store reads call_logs and writes survey_results over a direct Postgres connection.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// FetchUnclassified returns every call log not yet classified, in whatever order Postgres yields.
func (s *Store) FetchUnclassified(ctx context.Context) ([]CallRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, transcript
		FROM call_logs
		WHERE is_classified = false`)
	if err != nil {
		return nil, fmt.Errorf("query call logs: %w", err)
	}
	defer rows.Close()

	var records []CallRecord
	for rows.Next() {
		var rec CallRecord
		var transcript *string
		if err := rows.Scan(&rec.ID, &transcript); err != nil {
			return nil, fmt.Errorf("scan call log: %w", err)
		}
		if transcript != nil {
			rec.Transcript = *transcript
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate call logs: %w", err)
	}
	return records, nil
}

// InsertSurveyResult inserts one survey_results row keyed by column name.
func (s *Store) InsertSurveyResult(ctx context.Context, row map[string]any) error {
	query, args := insertStatement("survey_results", row)
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert survey result: %w", err)
	}
	return nil
}

// MarkClassified flags a call log as handled.
func (s *Store) MarkClassified(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE call_logs SET is_classified = true
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark call %d classified: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark call %d classified: no such call log", id)
	}
	return nil
}

// insertStatement builds a parameterised INSERT with columns in sorted order.
func insertStatement(table string, row map[string]any) (string, []any) {
	cols := slices.Sorted(maps.Keys(row))
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[c]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args
}
