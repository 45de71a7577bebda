package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/runwatch/errors"
)

// ErrorHandler prints errors with a hint for the codes a user can act on.
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool, out io.Writer) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose, Out: out}
}

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Hint returns the advice printed under an error, or "".
func Hint(err error) string {
	gerr, _ := errors.As(err)
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		return "Create runwatch.yml in the repository or pass --config."
	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		return "Run 'runwatch config schema' to see the accepted settings."
	case errors.ErrCodeNotRepository:
		return "Point repo.root at a git working copy with a configured remote."
	case errors.ErrCodeGitNotInstalled:
		return "Install git and make sure it is on PATH."
	case errors.ErrCodeCommandNotFound:
		return fmt.Sprintf("Install %s or set review.cli_path to its location.", gerr.Detail("command"))
	case errors.ErrCodeAlreadyRunning:
		return fmt.Sprintf("Stop the process with pid %s or remove %s if it is stale.", gerr.Detail("pid"), gerr.Detail("pidFile"))
	case errors.ErrCodeManifestMissing, errors.ErrCodeManifestIncomplete, errors.ErrCodeManifestInvalid:
		return "Check the run folder's manifest; the watcher retries once it is fixed."
	case errors.ErrCodeStructureUnrecognized:
		return "Runs must sit in <MM.DD>/<run_N_HHhMM>/ under the watched folder."
	}
	return ""
}

// Handle prints err and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	fmt.Fprintf(h.Out, "%s %v\n", errorStyle.Render("Error:"), err)
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(h.Out, hintStyle.Render(hint))
	}

	if h.Verbose {
		if gerr, ok := errors.As(err); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", gerr.ToJSON())
		}
	}
	return err
}
