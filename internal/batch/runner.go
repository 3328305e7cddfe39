// Package batch drives one classification pass over every unclassified call log.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/callsurvey/internal/hermes"
	"github.com/MikeSquared-Agency/callsurvey/internal/processor"
	"github.com/MikeSquared-Agency/callsurvey/internal/store"
	"github.com/MikeSquared-Agency/callsurvey/internal/survey"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("batch run already in progress")

// Store is the row store the runner reads from and writes to.
type Store interface {
	FetchUnclassified(ctx context.Context) ([]store.CallRecord, error)
	InsertSurveyResult(ctx context.Context, row map[string]any) error
	MarkClassified(ctx context.Context, id int64) error
}

type CallProcessor interface {
	Process(ctx context.Context, callID int64, transcript string) processor.Outcome
}

type Publisher interface {
	Publish(subject string, data any) error
}

// Notifier receives the summary once a run finishes.
type Notifier interface {
	NotifyRun(ctx context.Context, summary Summary) error
}

// Summary reports what one run did.
type Summary struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Fetched        int       `json:"fetched"`
	Processed      int       `json:"processed"`
	Skipped        int       `json:"skipped"`
	Saved          int       `json:"saved"`
	SaveFailed     int       `json:"save_failed"`
	MarkFailed     int       `json:"mark_failed"`
	DegradedFields int       `json:"degraded_fields"`
	Interrupted    bool      `json:"interrupted"`

	// Calls marked classified although their result was not saved.
	SaveFailedCalls []int64 `json:"save_failed_calls,omitempty"`
	DegradedCalls   []int64 `json:"degraded_calls,omitempty"`
}

// Runner processes call logs strictly one at a time.
type Runner struct {
	store     Store
	proc      CallProcessor
	publisher Publisher
	notifier  Notifier
	logger    *slog.Logger

	running sync.Mutex

	mu   sync.Mutex
	last *Summary
}

// NewRunner creates a runner. publisher may be nil.
func NewRunner(s Store, p CallProcessor, pub Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		store:     s,
		proc:      p,
		publisher: pub,
		logger:    logger,
	}
}

// SetNotifier registers a notifier for finished runs.
func (r *Runner) SetNotifier(n Notifier) {
	r.notifier = n
}

// Run fetches all unclassified call logs and handles each one. Only a fetch failure is
// returned as an error; per-record failures are logged and counted. Every handled record
// is marked classified, including ones whose result could not be saved.
//
// Cancelling ctx stops the run between records; the record in flight is finished.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if !r.running.TryLock() {
		return Summary{}, ErrRunInProgress
	}
	defer r.running.Unlock()

	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	logger := r.logger.With("run_id", summary.RunID)

	logger.Info("fetching unprocessed call logs")
	records, err := r.store.FetchUnclassified(ctx)
	if err != nil {
		logger.Error("could not fetch call logs", "error", err)
		return summary, fmt.Errorf("fetch call logs: %w", err)
	}
	summary.Fetched = len(records)

	if len(records) == 0 {
		logger.Info("no new calls to process")
		return r.finish(ctx, logger, summary), nil
	}
	logger.Info("calls to process", "count", len(records), "fields", survey.Keys())

	work := context.WithoutCancel(ctx)
	for _, rec := range records {
		select {
		case <-ctx.Done():
			logger.Warn("run interrupted", "remaining", summary.Fetched-summary.Processed-summary.Skipped)
			summary.Interrupted = true
			return r.finish(work, logger, summary), ctx.Err()
		default:
		}
		r.handle(work, logger, rec, &summary)
	}

	return r.finish(work, logger, summary), nil
}

// LastSummary returns the summary of the most recent finished run.
func (r *Runner) LastSummary() (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Summary{}, false
	}
	return *r.last, true
}

func (r *Runner) handle(ctx context.Context, logger *slog.Logger, rec store.CallRecord, summary *Summary) {
	logger = logger.With("call_id", rec.ID)
	logger.Info("processing call")

	evt := hermes.CallProcessedEvent{RunID: summary.RunID, CallID: rec.ID}

	out := r.proc.Process(ctx, rec.ID, rec.Transcript)
	if out.Result == nil {
		summary.Skipped++
		evt.Status = hermes.StatusSkipped
	} else {
		summary.Processed++
		evt.DegradedFields = out.Result.DegradedFields()
		summary.DegradedFields += len(evt.DegradedFields)
		if len(evt.DegradedFields) > 0 {
			summary.DegradedCalls = append(summary.DegradedCalls, rec.ID)
		}

		if err := r.store.InsertSurveyResult(ctx, out.Result.Row()); err != nil {
			logger.Error("could not save survey result, marking classified anyway", "error", err)
			summary.SaveFailed++
			summary.SaveFailedCalls = append(summary.SaveFailedCalls, rec.ID)
			evt.Status = hermes.StatusSaveFailed
		} else {
			summary.Saved++
			evt.Status = hermes.StatusSaved
		}
	}

	if err := r.markClassified(ctx, logger, rec.ID); err != nil {
		logger.Error("could not mark call classified", "error", err)
		summary.MarkFailed++
	} else {
		evt.Classified = true
	}

	logger.Info("call handled", "status", evt.Status, "degraded_fields", len(evt.DegradedFields))
	r.publish(logger, hermes.SubjectCallProcessed, evt)
}

// markClassified makes one retry before giving up.
func (r *Runner) markClassified(ctx context.Context, logger *slog.Logger, id int64) error {
	err := r.store.MarkClassified(ctx, id)
	if err == nil {
		return nil
	}
	logger.Warn("mark classified failed, retrying", "error", err)
	return r.store.MarkClassified(ctx, id)
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, summary Summary) Summary {
	summary.FinishedAt = time.Now().UTC()

	r.mu.Lock()
	last := summary
	r.last = &last
	r.mu.Unlock()

	logger.Info("run complete",
		"fetched", summary.Fetched,
		"saved", summary.Saved,
		"skipped", summary.Skipped,
		"save_failed", summary.SaveFailed,
		"mark_failed", summary.MarkFailed,
		"degraded_fields", summary.DegradedFields,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)
	r.publish(logger, hermes.SubjectRunCompleted, summary)
	if r.notifier != nil {
		if err := r.notifier.NotifyRun(ctx, summary); err != nil {
			logger.Warn("failed to notify run summary", "error", err)
		}
	}
	return summary
}

func (r *Runner) publish(logger *slog.Logger, subject string, data any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(subject, data); err != nil {
		logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
