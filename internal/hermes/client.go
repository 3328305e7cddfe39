package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectCallProcessed = "survey.call.processed"
	SubjectRunCompleted  = "survey.run.completed"
)

// Call statuses carried by CallProcessedEvent.
const (
	StatusSaved      = "saved"
	StatusSkipped    = "skipped"
	StatusSaveFailed = "save_failed"
)

// CallProcessedEvent is published once per handled call log.
type CallProcessedEvent struct {
	RunID          string   `json:"run_id"`
	CallID         int64    `json:"call_id"`
	Status         string   `json:"status"`
	Classified     bool     `json:"classified"`
	DegradedFields []string `json:"degraded_fields,omitempty"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("callsurvey"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// Close flushes pending publishes so the final run summary is not lost on exit.
func (c *Client) Close() {
	if err := c.conn.FlushTimeout(5 * time.Second); err != nil {
		c.logger.Warn("nats flush failed", "error", err)
	}
	c.conn.Close()
}
