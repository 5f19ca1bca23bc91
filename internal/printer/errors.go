package printer

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/kpauljoseph/printdrain/pkg/models"
)

var (
	// ErrBackend marks failures reported by the printer, the spooler, or
	// the automation host. Terminal for the job.
	ErrBackend = errors.New("print backend failure")

	// ErrSessionTeardown marks best-effort cleanup failures. Logged only.
	ErrSessionTeardown = errors.New("session teardown failure")
)

// PrintError carries enough context to diagnose a failed job without
// rerunning it.
type PrintError struct {
	Path    string
	Kind    models.DocumentKind
	Printer string
	Err     error
}

func (e *PrintError) Error() string {
	return fmt.Sprintf("printing %s %s on %s: %v", e.Kind, e.Path, e.Printer, e.Err)
}

func (e *PrintError) Unwrap() error {
	return e.Err
}

func backendError(job models.JobDescriptor, profile models.PrintProfile, err error, msg string) error {
	return &PrintError{
		Path:    job.Path,
		Kind:    job.Kind,
		Printer: profile.PrinterLabel(),
		Err:     errors.Mark(errors.Wrap(err, msg), ErrBackend),
	}
}
