//go:build integration

package store

import (
	"context"
	"os"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_FetchInsertMark(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO call_logs (transcript, is_classified)
		VALUES ('Agent: What is your age? User: 42, integration test', false)
		RETURNING id`).Scan(&id)
	if err != nil {
		t.Fatalf("seed call log: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(context.Background(), `DELETE FROM survey_results WHERE call_log_id = $1`, id)
		s.pool.Exec(context.Background(), `DELETE FROM call_logs WHERE id = $1`, id)
	})

	records, err := s.FetchUnclassified(ctx)
	if err != nil {
		t.Fatalf("FetchUnclassified failed: %v", err)
	}
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
		}
	}
	if !found {
		t.Fatalf("seeded call %d not returned", id)
	}

	if err := s.InsertSurveyResult(ctx, map[string]any{
		"call_log_id":   id,
		"katilim_onayi": true,
		"yas_araligi":   "42",
	}); err != nil {
		t.Fatalf("InsertSurveyResult failed: %v", err)
	}

	if err := s.MarkClassified(ctx, id); err != nil {
		t.Fatalf("MarkClassified failed: %v", err)
	}

	var classified bool
	if err := s.pool.QueryRow(ctx, `SELECT is_classified FROM call_logs WHERE id = $1`, id).Scan(&classified); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !classified {
		t.Error("expected call to be classified")
	}

	records, err = s.FetchUnclassified(ctx)
	if err != nil {
		t.Fatalf("second FetchUnclassified failed: %v", err)
	}
	for _, r := range records {
		if r.ID == id {
			t.Errorf("classified call %d returned again", id)
		}
	}
}

func TestIntegration_MarkMissing(t *testing.T) {
	s := setupTestStore(t)
	if err := s.MarkClassified(context.Background(), -1); err == nil {
		t.Error("expected error for missing call log")
	}
}
