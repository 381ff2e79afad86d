package interactive

import (
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/timertimertimer/kfudao/internal/domain/config"
)

func TestSelectorAdapter_NonInteractive(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
	ctx := context.Background()

	_, err := s.Confirm(ctx, "Bind?")
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = s.PromptText(ctx, "Email", nil)
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = s.PromptPassword(ctx, "Password")
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = s.SelectVoteDecision(ctx)
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = s.SelectInstitute(ctx, map[string]string{"IVMiIT": "Institute of CS", "IFMiB": "Institute of Physics"})
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = s.SelectFaculty(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrNonInteractive)
}

func TestSelectorAdapter_EmptyChoices(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{})
	ctx := context.Background()

	_, err := s.SelectInstitute(ctx, nil)
	assert.Error(t, err)

	_, err = s.SelectFaculty(ctx, nil)
	assert.Error(t, err)
}

func TestSelectorAdapter_SingleChoiceSkipsPrompt(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{})

	abbr, err := s.SelectInstitute(context.Background(), map[string]string{"IVMiIT": "Institute of CS"})
	assert.NoError(t, err)
	assert.Equal(t, "IVMiIT", abbr)

	faculty, err := s.SelectFaculty(context.Background(), []string{"Software Engineering"})
	assert.NoError(t, err)
	assert.Equal(t, "Software Engineering", faculty)
}

func TestFormatInstituteOptions(t *testing.T) {
	color.NoColor = true
	options := formatInstituteOptions(
		[]string{"IFMiB", "IVMiIT"},
		map[string]string{"IVMiIT": "Institute of CS", "IFMiB": "Institute of Physics"},
	)
	assert.Equal(t, []string{"Institute of Physics (IFMiB)", "Institute of CS (IVMiIT)"}, options)
}

func TestFuzzySearch(t *testing.T) {
	items := []string{"Software Engineering", "Applied Mathematics", "Physics"}
	search := createFuzzySearchFunc(items)

	tests := []struct {
		input string
		index int
		want  bool
	}{
		{"", 2, true},
		{"soft", 0, true},
		{"SOFT", 0, true},
		{"apmath", 1, true},
		{"xyz", 2, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, search(tt.input, tt.index), "%q vs %q", tt.input, items[tt.index])
	}
}

func TestNotBlank(t *testing.T) {
	assert.Error(t, notBlank("   "))
	assert.NoError(t, notBlank("x"))
}
