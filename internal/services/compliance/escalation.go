package compliance

import "strings"

// Risk tiers for corrective actions.
const (
	TierBaixo   = "baixo"
	TierMedia   = "media"
	TierAlta    = "alta"
	TierCritica = "critica"
)

// Escalation is the outcome of the corrective-action policy.
type Escalation struct {
	RequiresAction bool   `json:"requires_action"`
	RiskTier       string `json:"risk_tier,omitempty"`
	DueInDays      int    `json:"due_in_days,omitempty"`
}

// riskLexicon are the analysis-text terms that, when two or more distinct
// ones appear, escalate even without a negative structured answer.
var riskLexicon = []string{
	"risco", "perigo", "grave", "urgente", "acidente",
	"incendio", "queda", "exposicao", "choque", "vazamento",
	"lesao", "fatal",
}

// DueDays maps a risk tier to its deadline offset. Deadlines are always
// derived here, never taken from caller input.
func DueDays(tier string) int {
	switch tier {
	case TierCritica:
		return 7
	case TierAlta:
		return 14
	case TierMedia:
		return 30
	default:
		return 30
	}
}

// Escalate decides whether a classified response requires a corrective
// action, and at which tier. analysisNotes is opaque advisory text from
// the external analysis collaborator; it can raise an escalation but it
// is never an authorization signal.
func Escalate(status *Status, fieldType string, value any, evidenceCount int, analysisNotes string) Escalation {
	if fieldType == FieldRating {
		if n, ok := asNumber(value); ok {
			if n == 1 {
				return Escalation{RequiresAction: true, RiskTier: TierCritica, DueInDays: DueDays(TierCritica)}
			}
			if n == 2 {
				return Escalation{RequiresAction: true, RiskTier: TierAlta, DueInDays: DueDays(TierAlta)}
			}
		}
	}
	if status != nil && *status == NaoConforme && fieldType == FieldBoolean {
		return Escalation{RequiresAction: true, RiskTier: TierAlta, DueInDays: DueDays(TierAlta)}
	}
	if countRiskTerms(analysisNotes) >= 2 {
		return Escalation{RequiresAction: true, RiskTier: TierMedia, DueInDays: DueDays(TierMedia)}
	}
	return Escalation{}
}

func countRiskTerms(notes string) int {
	if notes == "" {
		return 0
	}
	norm := normalize(notes)
	count := 0
	for _, term := range riskLexicon {
		if strings.Contains(norm, term) {
			count++
		}
	}
	return count
}
