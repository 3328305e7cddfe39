// Package survey defines the fixed set of survey fields extracted from every call and
// how a raw oracle answer becomes a stored value for each of them.
package survey

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/MikeSquared-Agency/callsurvey/internal/oracle"
)

type Kind int

const (
	KindText Kind = iota
	KindBool
)

// Field is one extraction target. Normalize turns the oracle's answer into the stored value.
type Field struct {
	Key       string
	Question  string
	Kind      Kind
	Normalize func(oracle.Answer) Value
}

// Column keys of survey_results.
const (
	KeyConsent         = "katilim_onayi"
	KeyAgeRange        = "yas_araligi"
	KeyEducation       = "egitim_durumu"
	KeyEmployment      = "calisma_durumu_ve_meslek"
	KeyIncome          = "aylik_gelir"
	KeyNationalIssue   = "en_onemli_toplumsal_sorun"
	KeyLocalIssue      = "en_onemli_yerel_sorun"
	KeyLastVote        = "son_secim_oy_tercihi"
	KeySundayVote      = "bu_pazar_secim_oy_tercihi"
	KeyAdditionalNotes = "ek_gorusler"
)

// Fields returns the ordered field set. The slice is a fresh copy on every call.
func Fields() []Field {
	return []Field{
		{
			Key:       KeyConsent,
			Question:  "Did the user agree to participate in the survey? Answer only true or false.",
			Kind:      KindBool,
			Normalize: AffirmativeBool("true"),
		},
		textField(KeyAgeRange, "What is the user's age or age range?"),
		textField(KeyEducation, "What is the user's education level?"),
		textField(KeyEmployment, "What is the user's employment status and profession?"),
		textField(KeyIncome, "What is the user's monthly income level?"),
		textField(KeyNationalIssue, "According to the user, what is the most important social issue in Turkey?"),
		textField(KeyLocalIssue, "According to the user, what is the most important local issue in their city?"),
		textField(KeyLastVote, "Which political party did the user vote for in the last election?"),
		textField(KeySundayVote, "If an election were held this Sunday, which party would the user vote for?"),
		textField(KeyAdditionalNotes, "Does the user have any additional wishes or suggestions?"),
	}
}

func textField(key, question string) Field {
	return Field{Key: key, Question: question, Kind: KindText, Normalize: PassThrough}
}

// PassThrough keeps the answer as-is; sentinels are serialised at the storage boundary.
func PassThrough(a oracle.Answer) Value {
	return TextValue(a)
}

// AffirmativeBool yields true only for a real answer containing token, case-insensitively.
// Declined, not-found and failed answers are false.
func AffirmativeBool(token string) func(oracle.Answer) Value {
	want := cases.Fold().String(token)
	return func(a oracle.Answer) Value {
		if a.Kind != oracle.AnswerValue {
			return BoolValue(false, a)
		}
		return BoolValue(strings.Contains(cases.Fold().String(a.Text), want), a)
	}
}

// Keys lists field keys in order.
func Keys() []string {
	fields := Fields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}
