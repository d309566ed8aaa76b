package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoolean(t *testing.T) {
	assert.Equal(t, Conforme, *Classify(FieldBoolean, true, nil))
	assert.Equal(t, NaoConforme, *Classify(FieldBoolean, false, nil))
	assert.Equal(t, Conforme, *Classify(FieldBoolean, "sim", nil))
	assert.Equal(t, NaoConforme, *Classify(FieldBoolean, "não", nil))
}

func TestClassifyRatingBoundaries(t *testing.T) {
	cases := []struct {
		rating float64
		want   Status
	}{
		{1, NaoConforme},
		{2, NaoConforme},
		{3, ParcialmenteConforme},
		{4, Conforme},
		{5, Conforme},
	}
	for _, c := range cases {
		got := Classify(FieldRating, c.rating, nil)
		require.NotNil(t, got, "rating %v", c.rating)
		assert.Equal(t, c.want, *got, "rating %v", c.rating)
	}
}

func TestClassifyExplicitOverrideWins(t *testing.T) {
	explicit := NaoAplicavel
	got := Classify(FieldRating, 5.0, &explicit)
	require.NotNil(t, got)
	assert.Equal(t, NaoAplicavel, *got)
}

func TestClassifyLexicon(t *testing.T) {
	cases := []struct {
		value string
		want  Status
	}{
		{"Não conforme", NaoConforme},
		{"NAO CONFORME", NaoConforme},
		{"item inadequado para uso", NaoConforme},
		{"não aplicável", NaoAplicavel},
		{"N/A", NaoAplicavel},
		{"Conforme", Conforme},
		{"tudo conforme esperado", Conforme},
	}
	for _, c := range cases {
		got := Classify(FieldSelect, c.value, nil)
		require.NotNil(t, got, "value %q", c.value)
		assert.Equal(t, c.want, *got, "value %q", c.value)
	}
}

func TestClassifyUnmatchedIsNilNeverCompliant(t *testing.T) {
	assert.Nil(t, Classify(FieldText, "tudo certo por aqui", nil))
	assert.Nil(t, Classify(FieldText, "", nil))
	assert.Nil(t, Classify(FieldNumber, 42.0, nil))
	assert.Nil(t, Classify(FieldDate, "2026-01-01", nil))
	assert.Nil(t, Classify(FieldFile, map[string]any{"url": "x"}, nil))
	assert.Nil(t, Classify(FieldBoolean, "maybe", nil))
	assert.Nil(t, Classify(FieldRating, "not-a-number", nil))
}

func TestClassifyIsIdempotent(t *testing.T) {
	inputs := []struct {
		ft string
		v  any
	}{
		{FieldBoolean, true},
		{FieldRating, 3.0},
		{FieldSelect, "não conforme"},
		{FieldText, "anything"},
	}
	for _, in := range inputs {
		first := Classify(in.ft, in.v, nil)
		second := Classify(in.ft, in.v, nil)
		if first == nil {
			assert.Nil(t, second)
			continue
		}
		require.NotNil(t, second)
		assert.Equal(t, *first, *second)
	}
}

func TestClassifyMultiselectJoinsValues(t *testing.T) {
	got := Classify(FieldMultiselect, []any{"epi ok", "extintor inadequado"}, nil)
	require.NotNil(t, got)
	assert.Equal(t, NaoConforme, *got)
}
