package store

import (
	"context"
	"fmt"
	"strconv"

	supabase "github.com/supabase-community/supabase-go"
)

// Supabase reaches the same tables through the Supabase REST (PostgREST) API, for
// deployments that only hand out a project URL and service key.
type Supabase struct {
	client *supabase.Client
}

// NewSupabase builds the SDK client and verifies call_logs is reachable.
func NewSupabase(ctx context.Context, url, key string) (*Supabase, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase URL and key are required")
	}
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}
	s := &Supabase{client: client}
	if err := s.ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Supabase) ping(_ context.Context) error {
	if _, _, err := s.client.From("call_logs").Select("id", "", false).Limit(1, "").Execute(); err != nil {
		return fmt.Errorf("ping supabase: %w", err)
	}
	return nil
}

type callLogRow struct {
	ID         int64   `json:"id"`
	Transcript *string `json:"transcript"`
}

func (s *Supabase) FetchUnclassified(_ context.Context) ([]CallRecord, error) {
	var rows []callLogRow
	_, err := s.client.From("call_logs").
		Select("id, transcript", "", false).
		Eq("is_classified", "false").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("query call logs: %w", err)
	}

	records := make([]CallRecord, 0, len(rows))
	for _, r := range rows {
		rec := CallRecord{ID: r.ID}
		if r.Transcript != nil {
			rec.Transcript = *r.Transcript
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Supabase) InsertSurveyResult(_ context.Context, row map[string]any) error {
	if _, _, err := s.client.From("survey_results").Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert survey result: %w", err)
	}
	return nil
}

func (s *Supabase) MarkClassified(_ context.Context, id int64) error {
	_, _, err := s.client.From("call_logs").
		Update(map[string]any{"is_classified": true}, "minimal", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return fmt.Errorf("mark call %d classified: %w", id, err)
	}
	return nil
}

func (s *Supabase) Close() {}
