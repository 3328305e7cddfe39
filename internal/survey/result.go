package survey

import "github.com/MikeSquared-Agency/callsurvey/internal/oracle"

// Value is a normalised field value. Answer keeps the oracle outcome it was derived from,
// including for bool fields, so degraded probes stay visible.
type Value struct {
	Kind   Kind
	Bool   bool
	Answer oracle.Answer
}

func BoolValue(b bool, src oracle.Answer) Value {
	return Value{Kind: KindBool, Bool: b, Answer: src}
}

func TextValue(a oracle.Answer) Value {
	return Value{Kind: KindText, Answer: a}
}

// Stored returns the column value: a bool, or the answer text / sentinel string.
func (v Value) Stored() any {
	if v.Kind == KindBool {
		return v.Bool
	}
	return v.Answer.String()
}

// Degraded reports whether the oracle call behind this value failed.
func (v Value) Degraded() bool {
	return v.Answer.Kind == oracle.AnswerError
}

type FieldValue struct {
	Key   string
	Value Value
}

// Result is the structured survey extracted from one call, one value per field in order.
type Result struct {
	CallLogID int64
	Values    []FieldValue
}

// Get returns the value for key.
func (r *Result) Get(key string) (Value, bool) {
	for _, fv := range r.Values {
		if fv.Key == key {
			return fv.Value, true
		}
	}
	return Value{}, false
}

// DegradedFields lists keys whose oracle call failed.
func (r *Result) DegradedFields() []string {
	var keys []string
	for _, fv := range r.Values {
		if fv.Value.Degraded() {
			keys = append(keys, fv.Key)
		}
	}
	return keys
}

// Row renders the survey_results row.
func (r *Result) Row() map[string]any {
	row := make(map[string]any, len(r.Values)+1)
	row["call_log_id"] = r.CallLogID
	for _, fv := range r.Values {
		row[fv.Key] = fv.Value.Stored()
	}
	return row
}
