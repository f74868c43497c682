package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes reported by the CLI. Configuration and actuation failures are
// kept apart so an operator can tell a bad node file from a power controller
// that never received the sleep command.
const (
	ExitGeneral    = 1
	ExitValidation = 2
	ExitConfig     = 7
	ExitChannel    = 8
	ExitInternal   = 10
	ExitStorage    = 11
	ExitRuntime    = 12
	ExitActuation  = 13
)

// CLIErrorAdapter prints a command error and exits with the code for its category.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if _, ok := AsClassified(err); !ok {
		return ExitGeneral
	}
	switch CategoryOf(err) {
	case CategoryValidation:
		return ExitValidation
	case CategoryConfig:
		return ExitConfig
	case CategoryActuation:
		return ExitActuation
	case CategoryChannel, CategoryExchange:
		return ExitChannel
	case CategoryStorage:
		return ExitStorage
	case CategoryRuntime, CategoryService:
		return ExitRuntime
	case CategoryInternal:
		return ExitInternal
	default:
		return ExitGeneral
	}
}

// FormatError renders err for the terminal. Verbose mode shows the whole chain.
func (a *CLIErrorAdapter) FormatError(err error) string {
	classified, ok := AsClassified(err)
	switch {
	case err == nil:
		return ""
	case !ok:
		return "Error: " + err.Error()
	case a.verbose:
		return err.Error()
	case classified.Category() == CategoryInternal:
		return "Internal error occurred (use -v for details)"
	}
	return "Error: " + classified.Message()
}

// HandleError logs err, prints it and exits. A nil error is a no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if classified, ok := AsClassified(err); a.verbose || !ok || classified.IsFatal() {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{
		slog.String("category", string(classified.Category())),
	}
	if classified.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	if classified.Cause() != nil {
		attrs = append(attrs, slog.String("cause", classified.Cause().Error()))
	}
	for k, v := range classified.Context() {
		attrs = append(attrs, slog.Any(k, v))
	}

	level := slog.LevelError
	if classified.Severity() == SeverityWarning {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}
