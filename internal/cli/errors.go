package cli

import (
	"errors"

	"github.com/alexanderramin/reqtrack/internal/cli/formatter"
	"github.com/alexanderramin/reqtrack/internal/domain"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitError      = 1
	ExitValidation = 2
	ExitNotFound   = 3
	ExitConflict   = 4
)

// ExitCode maps domain error kinds to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrValidation):
		return ExitValidation
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrConflict):
		return ExitConflict
	default:
		return ExitError
	}
}

// FormatError renders err for the terminal with a kind label.
func FormatError(err error) string {
	label := "error"
	switch ExitCode(err) {
	case ExitValidation:
		label = "invalid"
	case ExitNotFound:
		label = "not found"
	case ExitConflict:
		label = "conflict"
	}
	return formatter.StyleRed.Render(label+":") + " " + err.Error()
}
