package oracle

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stored representations of the non-answer outcomes. Downstream consumers match these exactly.
const (
	SentinelDeclined = "Cevap Vermedi"
	SentinelNotFound = "Soru Sorulmadı"
	SentinelError    = "İşlem Hatası"
)

type Kind int

const (
	AnswerValue Kind = iota
	AnswerDeclined
	AnswerNotFound
	AnswerError
)

func (k Kind) String() string {
	switch k {
	case AnswerValue:
		return "value"
	case AnswerDeclined:
		return "declined"
	case AnswerNotFound:
		return "not_found"
	case AnswerError:
		return "error"
	default:
		return "unknown"
	}
}

// Answer is the outcome of probing a transcript for one question.
// Text is only meaningful when Kind is AnswerValue.
type Answer struct {
	Kind Kind
	Text string
}

func Value(text string) Answer { return Answer{Kind: AnswerValue, Text: text} }
func Declined() Answer         { return Answer{Kind: AnswerDeclined} }
func NotFound() Answer         { return Answer{Kind: AnswerNotFound} }
func Failed() Answer           { return Answer{Kind: AnswerError} }

// String serialises the answer for storage.
func (a Answer) String() string {
	switch a.Kind {
	case AnswerDeclined:
		return SentinelDeclined
	case AnswerNotFound:
		return SentinelNotFound
	case AnswerError:
		return SentinelError
	default:
		return a.Text
	}
}

// ParseAnswer classifies raw model output. The model is asked to echo the sentinels, so
// they are recognised loosely: quotes, trailing punctuation, case and dotted/dotless i
// differences are ignored. Empty output counts as a non-answer.
func ParseAnswer(raw string) Answer {
	text := strings.TrimSpace(raw)
	cleaned := strings.TrimRight(strings.Trim(text, "\"'`“”‘’ "), ".!;: ")
	if cleaned == "" {
		return Declined()
	}
	switch fold(cleaned) {
	case fold(SentinelDeclined):
		return Declined()
	case fold(SentinelNotFound):
		return NotFound()
	case fold(SentinelError):
		return Failed()
	}
	return Value(text)
}

var dotless = strings.NewReplacer("ı", "i")

func fold(s string) string {
	return dotless.Replace(cases.Lower(language.Turkish).String(s))
}
