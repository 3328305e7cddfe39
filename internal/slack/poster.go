package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/callsurvey/internal/batch"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// maxListedCalls caps how many call ids are spelled out per category.
const maxListedCalls = 25

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// NotifyRun posts the run summary so an operator can see which calls degraded.
func (p *Poster) NotifyRun(ctx context.Context, summary batch.Summary) error {
	text := formatRunSummary(summary)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted run summary to slack", "ts", slackResp.TS, "run_id", summary.RunID)
	return nil
}

func formatRunSummary(s batch.Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Survey extraction run* `%s`\n", s.RunID)
	if s.Interrupted {
		sb.WriteString("_Run was interrupted; remaining calls stay pending._\n")
	}
	if s.Fetched == 0 {
		sb.WriteString("_No new calls to process._")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Fetched: %d | Saved: %d | Skipped: %d | Save failed: %d | Mark failed: %d\n",
		s.Fetched, s.Saved, s.Skipped, s.SaveFailed, s.MarkFailed)
	fmt.Fprintf(&sb, "Degraded fields: %d\n", s.DegradedFields)

	writeCalls(&sb, "Calls classified without a saved result", s.SaveFailedCalls)
	writeCalls(&sb, "Calls with degraded fields", s.DegradedCalls)

	return sb.String()
}

func writeCalls(sb *strings.Builder, label string, ids []int64) {
	if len(ids) == 0 {
		return
	}
	shown := ids
	if len(shown) > maxListedCalls {
		shown = shown[:maxListedCalls]
	}
	parts := make([]string, len(shown))
	for i, id := range shown {
		parts[i] = strconv.FormatInt(id, 10)
	}
	fmt.Fprintf(sb, "\n*%s (%d):* %s", label, len(ids), strings.Join(parts, ", "))
	if len(ids) > len(shown) {
		fmt.Fprintf(sb, " and %d more", len(ids)-len(shown))
	}
}
