package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/callsurvey/internal/oracle"
	"github.com/MikeSquared-Agency/callsurvey/internal/survey"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedExtractor answers by question text; unknown questions are not found.
type scriptedExtractor struct {
	answers map[string]oracle.Answer
	calls   []string
}

func (s *scriptedExtractor) Extract(_ context.Context, _ string, question string) oracle.Answer {
	s.calls = append(s.calls, question)
	if a, ok := s.answers[question]; ok {
		return a
	}
	return oracle.NotFound()
}

func questionFor(t *testing.T, key string) string {
	t.Helper()
	for _, f := range survey.Fields() {
		if f.Key == key {
			return f.Question
		}
	}
	t.Fatalf("unknown field %s", key)
	return ""
}

func TestProcess_ShortTranscriptSkipped(t *testing.T) {
	for _, tr := range []string{"", "short", "   padded short   ", strings.Repeat("ç", 19)} {
		ext := &scriptedExtractor{}
		p := New(ext, discardLogger())

		out := p.Process(context.Background(), 1, tr)
		if !out.Skipped || out.Result != nil {
			t.Errorf("transcript %q: expected skip, got %+v", tr, out)
		}
		if len(ext.calls) != 0 {
			t.Errorf("transcript %q: expected no oracle calls, got %d", tr, len(ext.calls))
		}
	}
}

func TestProcess_ExactlyThresholdIsProcessed(t *testing.T) {
	ext := &scriptedExtractor{}
	p := New(ext, discardLogger())

	out := p.Process(context.Background(), 1, "  "+strings.Repeat("a", MinTranscriptRunes)+"  ")
	if out.Skipped {
		t.Fatal("transcript at threshold should be processed")
	}
	if len(ext.calls) != 10 {
		t.Errorf("expected 10 oracle calls, got %d", len(ext.calls))
	}
}

func TestProcess_Scenario(t *testing.T) {
	ext := &scriptedExtractor{answers: map[string]oracle.Answer{
		questionFor(t, survey.KeyConsent):  oracle.Value("true"),
		questionFor(t, survey.KeyAgeRange): oracle.Value("42"),
	}}
	p := New(ext, discardLogger())

	transcript := "... Would you like to participate? User: Yes, sure. ... What is your age? User: 42 ..."
	out := p.Process(context.Background(), 2, transcript)
	if out.Skipped || out.Result == nil {
		t.Fatal("expected a result")
	}
	r := out.Result
	if r.CallLogID != 2 {
		t.Errorf("expected call_log_id 2, got %d", r.CallLogID)
	}
	if len(r.Values) != 10 {
		t.Fatalf("expected 10 values, got %d", len(r.Values))
	}

	row := r.Row()
	if row[survey.KeyConsent] != true {
		t.Errorf("expected consent true, got %v", row[survey.KeyConsent])
	}
	if row[survey.KeyAgeRange] != "42" {
		t.Errorf("expected age 42, got %v", row[survey.KeyAgeRange])
	}
	for _, key := range survey.Keys()[2:] {
		if row[key] != oracle.SentinelNotFound {
			t.Errorf("field %s: expected not-found sentinel, got %v", key, row[key])
		}
	}
}

func TestProcess_FieldOrderAndQuestions(t *testing.T) {
	ext := &scriptedExtractor{}
	p := New(ext, discardLogger())
	p.Process(context.Background(), 3, strings.Repeat("transcript ", 5))

	fields := survey.Fields()
	if len(ext.calls) != len(fields) {
		t.Fatalf("expected %d calls, got %d", len(fields), len(ext.calls))
	}
	for i, f := range fields {
		if ext.calls[i] != f.Question {
			t.Errorf("call %d: expected question for %s", i, f.Key)
		}
	}
}

func TestProcess_OneFieldFailsOthersSurvive(t *testing.T) {
	ext := &scriptedExtractor{answers: map[string]oracle.Answer{
		questionFor(t, survey.KeyConsent):   oracle.Value("true"),
		questionFor(t, survey.KeyAgeRange):  oracle.Value("30-40"),
		questionFor(t, survey.KeyEducation): oracle.Failed(),
		questionFor(t, survey.KeyIncome):    oracle.Declined(),
	}}
	p := New(ext, discardLogger())

	out := p.Process(context.Background(), 4, strings.Repeat("long enough transcript ", 3))
	if out.Result == nil {
		t.Fatal("expected a result")
	}
	row := out.Result.Row()
	if row[survey.KeyEducation] != oracle.SentinelError {
		t.Errorf("expected error sentinel for field 3, got %v", row[survey.KeyEducation])
	}
	if row[survey.KeyAgeRange] != "30-40" {
		t.Errorf("expected age 30-40, got %v", row[survey.KeyAgeRange])
	}
	if row[survey.KeyIncome] != oracle.SentinelDeclined {
		t.Errorf("expected declined sentinel, got %v", row[survey.KeyIncome])
	}
	if got := out.Result.DegradedFields(); len(got) != 1 || got[0] != survey.KeyEducation {
		t.Errorf("expected only %s degraded, got %v", survey.KeyEducation, got)
	}
}

func TestProcess_LogsCallSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ext := &scriptedExtractor{answers: map[string]oracle.Answer{
		questionFor(t, survey.KeyConsent):   oracle.Value("true"),
		questionFor(t, survey.KeyEducation): oracle.Failed(),
	}}

	out := New(ext, logger).Process(context.Background(), 9, strings.Repeat("a", 40))
	if out.Result == nil {
		t.Fatal("expected result")
	}

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("invalid log line %s: %v", line, err)
		}
		if rec["msg"] != "call extracted" {
			continue
		}
		found = true
		if rec["call_id"] != float64(9) || rec["consent"] != true || rec["degraded_fields"] != float64(1) {
			t.Errorf("unexpected summary log %v", rec)
		}
	}
	if !found {
		t.Error("expected a call extracted log line")
	}
}
