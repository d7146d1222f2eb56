package cli

import (
	"errors"
	"strings"

	"github.com/alexanderramin/reqtrack/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// reqtrackHuhTheme returns a huh theme using the formatter palette.
func reqtrackHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// requirementFields is the editable text of a requirement version as the
// forms see it. Tags are comma separated.
type requirementFields struct {
	Title      string
	Statement  string
	Rationale  string
	Tags       string
	DeltaNotes string
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

// requirementForm collects version text. withNotes adds the delta notes
// field shown when editing.
func requirementForm(f *requirementFields, withNotes bool) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Value(&f.Title).
			Validate(validateRequired("title")),
		huh.NewText().
			Title("Statement").
			Description("The normative text, e.g. \"The system shall ...\"").
			Value(&f.Statement).
			Validate(validateRequired("statement")),
		huh.NewText().
			Title("Rationale").
			Description("Optional").
			Value(&f.Rationale),
		huh.NewInput().
			Title("Tags").
			Placeholder("safety, brakes").
			Value(&f.Tags),
	}
	if withNotes {
		fields = append(fields, huh.NewInput().
			Title("What changed?").
			Value(&f.DeltaNotes))
	}
	return huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(reqtrackHuhTheme()).
		WithShowHelp(false)
}

// confirmForm asks a yes/no question.
func confirmForm(title string, value *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(value),
		),
	).WithTheme(reqtrackHuhTheme()).WithShowHelp(false)
}
