// Package oracle wraps a text-generation model behind a single question-answering call
// over a call transcript.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Generator is a text-in, text-out model backend.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type Options struct {
	MaxPromptRunes  int
	MaxOutputTokens int
	MaxAnswerRunes  int
}

func DefaultOptions() Options {
	return Options{
		MaxPromptRunes:  8192,
		MaxOutputTokens: 50,
		MaxAnswerRunes:  200,
	}
}

type Adapter struct {
	gen    Generator
	opts   Options
	logger *slog.Logger
}

// New builds an adapter. Zero option fields fall back to DefaultOptions.
func New(gen Generator, opts Options, logger *slog.Logger) *Adapter {
	def := DefaultOptions()
	if opts.MaxPromptRunes <= 0 {
		opts.MaxPromptRunes = def.MaxPromptRunes
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = def.MaxOutputTokens
	}
	if opts.MaxAnswerRunes <= 0 {
		opts.MaxAnswerRunes = def.MaxAnswerRunes
	}
	return &Adapter{gen: gen, opts: opts, logger: logger}
}

// Extract asks the model for the user's answer to question within transcript.
// It never fails: generation errors come back as an AnswerError outcome.
func (a *Adapter) Extract(ctx context.Context, transcript, question string) Answer {
	if strings.TrimSpace(transcript) == "" || strings.TrimSpace(question) == "" {
		a.logger.Warn("oracle called with empty input",
			"transcript_len", len(transcript),
			"question_len", len(question),
		)
		return Failed()
	}

	prompt := BuildPrompt(transcript, question, a.opts.MaxPromptRunes)

	raw, err := a.gen.Generate(ctx, prompt, a.opts.MaxOutputTokens)
	if err != nil {
		a.logger.Error("oracle generation failed", "error", err)
		return Failed()
	}

	ans := ParseAnswer(raw)
	if ans.Kind == AnswerValue {
		ans.Text = clip(ans.Text, a.opts.MaxAnswerRunes)
	}
	return ans
}

// BuildPrompt renders the extraction prompt, cutting the transcript tail when the whole
// prompt would exceed maxRunes. Instructions and question are never cut.
func BuildPrompt(transcript, question string, maxRunes int) string {
	full := fmt.Sprintf(extractionPrompt, transcript, question)
	if maxRunes <= 0 || utf8.RuneCountInString(full) <= maxRunes {
		return full
	}

	fixed := utf8.RuneCountInString(fmt.Sprintf(extractionPrompt, "", question))
	keep := maxRunes - fixed
	if keep < 0 {
		keep = 0
	}
	return fmt.Sprintf(extractionPrompt, clip(transcript, keep), question)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
