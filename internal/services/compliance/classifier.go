package compliance

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Status is the derived compliance classification of an item response.
type Status string

const (
	Conforme             Status = "conforme"
	NaoConforme          Status = "nao_conforme"
	NaoAplicavel         Status = "nao_aplicavel"
	ParcialmenteConforme Status = "parcialmente_conforme"
)

// Field types an inspection item can carry.
const (
	FieldBoolean     = "boolean"
	FieldSelect      = "select"
	FieldRadio       = "radio"
	FieldMultiselect = "multiselect"
	FieldRating      = "rating"
	FieldText        = "text"
	FieldTextarea    = "textarea"
	FieldNumber      = "number"
	FieldDate        = "date"
	FieldTime        = "time"
	FieldFile        = "file"
)

// lexicon entries are matched as substrings against the normalized
// response, in order: negative and not-applicable vocabulary must be
// tried before "conforme", which is a substring of both.
var lexicon = []struct {
	term   string
	status Status
}{
	{"nao conforme", NaoConforme},
	{"nao-conforme", NaoConforme},
	{"non-conforme", NaoConforme},
	{"inadequado", NaoConforme},
	{"irregular", NaoConforme},
	{"nao aplicavel", NaoAplicavel},
	{"nao se aplica", NaoAplicavel},
	{"n/a", NaoAplicavel},
	{"conforme", Conforme},
	{"adequado", Conforme},
}

// Classify derives a compliance status from a raw response. It is total
// (any input yields a result, never a panic) and idempotent. A nil result
// means unanswered/indeterminate; an unmatched value is never defaulted
// to a compliant state.
//
// Precedence: explicit caller-supplied status, boolean mapping, rating
// thresholds, lexicon match, nil.
func Classify(fieldType string, value any, explicit *Status) *Status {
	if explicit != nil && *explicit != "" {
		s := *explicit
		return &s
	}
	switch fieldType {
	case FieldBoolean:
		if b, ok := asBool(value); ok {
			if b {
				return statusPtr(Conforme)
			}
			return statusPtr(NaoConforme)
		}
	case FieldRating:
		if n, ok := asNumber(value); ok {
			switch {
			case n >= 4:
				return statusPtr(Conforme)
			case n <= 2:
				return statusPtr(NaoConforme)
			default:
				return statusPtr(ParcialmenteConforme)
			}
		}
	}
	if s, ok := asText(value); ok {
		norm := normalize(s)
		for _, e := range lexicon {
			if strings.Contains(norm, e.term) {
				st := e.status
				return &st
			}
		}
	}
	return nil
}

func statusPtr(s Status) *Status { return &s }

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "sim", "yes":
			return true, true
		case "false", "nao", "não", "no":
			return false, true
		}
	}
	return false, false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func asText(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []any:
		parts := make([]string, 0, len(s))
		for _, p := range s {
			if str, ok := p.(string); ok {
				parts = append(parts, str)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " "), true
		}
	case []string:
		if len(s) > 0 {
			return strings.Join(s, " "), true
		}
	}
	return "", false
}

var accentReplacer = strings.NewReplacer(
	"ã", "a", "á", "a", "â", "a", "à", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"õ", "o", "ó", "o", "ô", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

func normalize(s string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}
