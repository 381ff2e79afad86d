package interactive

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"

	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// ErrNonInteractive is returned by every prompt when prompts are disabled
var ErrNonInteractive = errors.New("interactive prompt not available in non-interactive mode")

// SelectorAdapter asks the user through promptui
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

var selectTemplates = &promptui.SelectTemplates{
	Label:    "{{ . }}",
	Active:   "▸ {{ . | cyan }}",
	Inactive: "  {{ . | faint }}",
	Selected: "✓ {{ . | green }}",
	Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, type to filter, Enter to select"),
}

// Confirm asks a yes/no question
func (s *SelectorAdapter) Confirm(ctx context.Context, label string) (bool, error) {
	if s.config.NonInteractive {
		return false, ErrNonInteractive
	}

	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("prompt cancelled: %w", err)
	}
	return true, nil
}

// PromptText reads a line, re-asking until validate accepts it
func (s *SelectorAdapter) PromptText(ctx context.Context, label string, validate func(string) error) (string, error) {
	if s.config.NonInteractive {
		return "", ErrNonInteractive
	}

	prompt := promptui.Prompt{Label: label}
	if validate != nil {
		prompt.Validate = promptui.ValidateFunc(validate)
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return strings.TrimSpace(value), nil
}

// PromptPassword reads a masked non-blank value
func (s *SelectorAdapter) PromptPassword(ctx context.Context, label string) (string, error) {
	if s.config.NonInteractive {
		return "", ErrNonInteractive
	}

	prompt := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: notBlank,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return value, nil
}

// SelectVoteDecision lets the user pick for, against or abstain
func (s *SelectorAdapter) SelectVoteDecision(ctx context.Context) (models.VoteDecision, error) {
	decisions := models.AllVoteDecisions
	options := lo.Map(decisions, func(d models.VoteDecision, _ int) string { return d.String() })

	index, err := s.selectOne("Your vote", options, false)
	if err != nil {
		return 0, err
	}
	return decisions[index], nil
}

// SelectInstitute picks an institute by name and returns its abbreviation
func (s *SelectorAdapter) SelectInstitute(ctx context.Context, institutes map[string]string) (string, error) {
	if len(institutes) == 0 {
		return "", fmt.Errorf("no institutes available")
	}

	abbreviations := lo.Keys(institutes)
	slices.Sort(abbreviations)
	options := formatInstituteOptions(abbreviations, institutes)

	index, err := s.selectOne("Institute", options, true)
	if err != nil {
		return "", err
	}
	return abbreviations[index], nil
}

// SelectFaculty picks one of the given faculties
func (s *SelectorAdapter) SelectFaculty(ctx context.Context, faculties []string) (string, error) {
	if len(faculties) == 0 {
		return "", fmt.Errorf("no faculties available")
	}

	index, err := s.selectOne("Faculty", faculties, true)
	if err != nil {
		return "", err
	}
	return faculties[index], nil
}

func (s *SelectorAdapter) selectOne(label string, options []string, search bool) (int, error) {
	if s.config.NonInteractive {
		return 0, ErrNonInteractive
	}
	if len(options) == 1 {
		return 0, nil
	}

	promptSelect := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: selectTemplates,
		Size:      10,
	}
	if search {
		promptSelect.StartInSearchMode = true
		promptSelect.Searcher = createFuzzySearchFunc(options)
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

// formatInstituteOptions renders "Name (ABBR)" lines in the order of abbreviations
func formatInstituteOptions(abbreviations []string, names map[string]string) []string {
	return lo.Map(abbreviations, func(abbr string, _ int) string {
		name := color.New(color.FgWhite, color.Bold).Sprint(names[abbr])
		return fmt.Sprintf("%s (%s)", name, color.New(color.FgBlue).Sprint(abbr))
	})
}

func notBlank(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value must not be blank")
	}
	return nil
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

var _ usecase.Prompter = (*SelectorAdapter)(nil)
