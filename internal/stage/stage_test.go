package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_Order(t *testing.T) {
	assert.Equal(t, []Stage{Specification, Research, Implementation, Verification, Release}, All())
}

func TestNext_FixedSuccessors(t *testing.T) {
	tests := []struct {
		current Stage
		want    Stage
	}{
		{Specification, Research},
		{Research, Implementation},
		{Implementation, Verification},
		{Verification, Release},
		{Release, Specification}, // terminal wraps to first
	}

	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.current.Next())
		})
	}
}

func TestParse(t *testing.T) {
	for _, s := range All() {
		parsed, err := Parse(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := Parse("Deployer")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStage)

	// Matching is exact, not case-folded.
	_, err = Parse("release")
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestIsTerminal(t *testing.T) {
	for _, s := range All() {
		assert.Equal(t, s == Release, s.IsTerminal())
	}
}

func TestGuidance_CoversAllStages(t *testing.T) {
	for _, s := range All() {
		assert.NotEmpty(t, s.Guidance())
	}
}
