// Package processor turns one call transcript into a survey result by probing the oracle
// once per survey field.
package processor

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/callsurvey/internal/oracle"
	"github.com/MikeSquared-Agency/callsurvey/internal/survey"
)

// MinTranscriptRunes is the shortest trimmed transcript worth sending to the oracle.
const MinTranscriptRunes = 20

// Extractor answers one question about a transcript. *oracle.Adapter satisfies it.
type Extractor interface {
	Extract(ctx context.Context, transcript, question string) oracle.Answer
}

// Outcome is either Skipped or carries a fully populated Result.
type Outcome struct {
	Skipped bool
	Result  *survey.Result
}

type Processor struct {
	extractor Extractor
	fields    []survey.Field
	logger    *slog.Logger
}

func New(ext Extractor, logger *slog.Logger) *Processor {
	return &Processor{
		extractor: ext,
		fields:    survey.Fields(),
		logger:    logger,
	}
}

// Process extracts every survey field from transcript. Transcripts shorter than
// MinTranscriptRunes after trimming are skipped without calling the oracle.
func (p *Processor) Process(ctx context.Context, callID int64, transcript string) Outcome {
	if utf8.RuneCountInString(strings.TrimSpace(transcript)) < MinTranscriptRunes {
		p.logger.Info("skipping call with empty or short transcript", "call_id", callID)
		return Outcome{Skipped: true}
	}

	result := &survey.Result{
		CallLogID: callID,
		Values:    make([]survey.FieldValue, 0, len(p.fields)),
	}

	for _, f := range p.fields {
		p.logger.Debug("asking oracle", "call_id", callID, "field", f.Key)

		ans := p.extractor.Extract(ctx, transcript, f.Question)
		value := f.Normalize(ans)
		result.Values = append(result.Values, survey.FieldValue{Key: f.Key, Value: value})

		if value.Degraded() {
			p.logger.Warn("field extraction failed", "call_id", callID, "field", f.Key)
			continue
		}
		p.logger.Info("field extracted",
			"call_id", callID,
			"field", f.Key,
			"outcome", ans.Kind.String(),
			"value", value.Stored(),
		)
	}

	consent, _ := result.Get(survey.KeyConsent)
	p.logger.Info("call extracted",
		"call_id", callID,
		"consent", consent.Bool,
		"degraded_fields", len(result.DegradedFields()),
	)
	return Outcome{Result: result}
}
