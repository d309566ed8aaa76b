package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscalateRatingOneIsCritica(t *testing.T) {
	status := Classify(FieldRating, 1.0, nil)
	esc := Escalate(status, FieldRating, 1.0, 0, "")
	assert.True(t, esc.RequiresAction)
	assert.Equal(t, TierCritica, esc.RiskTier)
	assert.Equal(t, 7, esc.DueInDays)
}

func TestEscalateRatingTwoIsAlta(t *testing.T) {
	status := Classify(FieldRating, 2.0, nil)
	esc := Escalate(status, FieldRating, 2.0, 0, "")
	assert.True(t, esc.RequiresAction)
	assert.Equal(t, TierAlta, esc.RiskTier)
	assert.Equal(t, 14, esc.DueInDays)
}

func TestEscalateBooleanNonCompliance(t *testing.T) {
	status := Classify(FieldBoolean, false, nil)
	esc := Escalate(status, FieldBoolean, false, 0, "")
	assert.True(t, esc.RequiresAction)
	assert.Equal(t, TierAlta, esc.RiskTier)
	assert.Equal(t, 14, esc.DueInDays)
}

func TestEscalateRiskKeywordsInAnalysis(t *testing.T) {
	notes := "Há risco de queda na escada de acesso."
	esc := Escalate(nil, FieldText, "escada ok", 0, notes)
	assert.True(t, esc.RequiresAction, "two distinct risk terms must escalate")
	assert.Equal(t, TierMedia, esc.RiskTier)
	assert.Equal(t, 30, esc.DueInDays)
}

func TestEscalateSingleKeywordDoesNotFire(t *testing.T) {
	esc := Escalate(nil, FieldText, "ok", 0, "existe um risco menor")
	assert.False(t, esc.RequiresAction)
}

func TestEscalateNothingToEscalateOn(t *testing.T) {
	esc := Escalate(nil, FieldText, nil, 0, "")
	assert.False(t, esc.RequiresAction)
	assert.Empty(t, esc.RiskTier)
}

func TestEscalateCompliantAnswerDoesNotFire(t *testing.T) {
	status := Classify(FieldBoolean, true, nil)
	esc := Escalate(status, FieldBoolean, true, 3, "")
	assert.False(t, esc.RequiresAction)
}

func TestDueDaysDerivedFromTierOnly(t *testing.T) {
	assert.Equal(t, 7, DueDays(TierCritica))
	assert.Equal(t, 14, DueDays(TierAlta))
	assert.Equal(t, 30, DueDays(TierMedia))
}
