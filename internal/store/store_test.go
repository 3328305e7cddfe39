package store

import (
	"strings"
	"testing"
)

func TestInsertStatement(t *testing.T) {
	query, args := insertStatement("survey_results", map[string]any{
		"yas_araligi":   "42",
		"call_log_id":   int64(2),
		"katilim_onayi": true,
	})

	want := `INSERT INTO "survey_results" ("call_log_id", "katilim_onayi", "yas_araligi") VALUES ($1, $2, $3)`
	if query != want {
		t.Errorf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[0] != int64(2) || args[1] != true || args[2] != "42" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestInsertStatement_QuotesIdentifiers(t *testing.T) {
	query, _ := insertStatement("survey_results", map[string]any{`bad"col`: 1})
	if !strings.Contains(query, `"bad""col"`) {
		t.Errorf("expected escaped identifier, got %s", query)
	}
}
