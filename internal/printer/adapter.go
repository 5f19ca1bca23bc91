package printer

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

// Adapter prints jobs through the platform print mechanism, dispatching
// once on the job's document kind.
type Adapter struct {
	runner       Runner
	inspector    Inspector
	openSession  SessionOpener
	lpBinary     string
	officeBinary string
	logger       *logger.Logger
}

type AdapterOption func(*Adapter)

func WithRunner(r Runner) AdapterOption {
	return func(a *Adapter) {
		a.runner = r
	}
}

func WithInspector(i Inspector) AdapterOption {
	return func(a *Adapter) {
		a.inspector = i
	}
}

func WithSessionOpener(open SessionOpener) AdapterOption {
	return func(a *Adapter) {
		a.openSession = open
	}
}

func WithLPBinary(path string) AdapterOption {
	return func(a *Adapter) {
		if path != "" {
			a.lpBinary = path
		}
	}
}

func WithOfficeBinary(path string) AdapterOption {
	return func(a *Adapter) {
		if path != "" {
			a.officeBinary = path
		}
	}
}

func NewAdapter(log *logger.Logger, options ...AdapterOption) *Adapter {
	a := &Adapter{
		runner:       ExecRunner{},
		lpBinary:     "lp",
		officeBinary: "soffice",
		logger:       log,
	}

	for _, opt := range options {
		opt(a)
	}

	if a.openSession == nil {
		a.openSession = a.platformSessionOpener()
	}
	return a
}

func (a *Adapter) Print(ctx context.Context, job models.JobDescriptor, profile models.PrintProfile) error {
	a.logger.Debug("Printer: %s, paper %s, %s, %s",
		profile.PrinterLabel(), profile.PaperSize, profile.ScalingLabel(), profile.Orientation)

	switch job.Kind {
	case models.KindPDF:
		return a.printPDF(ctx, job, profile)
	case models.KindSpreadsheet:
		return a.printSpreadsheet(ctx, job, profile)
	default:
		return backendError(job, profile, errors.Newf("unsupported document kind %d", job.Kind), "dispatch")
	}
}

func (a *Adapter) printPDF(ctx context.Context, job models.JobDescriptor, profile models.PrintProfile) error {
	if _, ok := profile.PaperSize.MediaName(); !ok {
		a.logger.Warn("Paper size %d not supported for %s, using %s", profile.PaperSize, job.Name, models.FallbackPaperSize)
		profile.PaperSize = models.FallbackPaperSize
	}

	if a.inspector != nil {
		info, err := a.inspector.Inspect(job.Path)
		if err != nil {
			a.logger.Warn("Could not inspect %s: %v", job.Name, err)
		} else {
			a.logger.Debug("%s: %d page(s), first page %.0fx%.0f pt",
				job.Name, info.PageCount, info.FirstPage.Width, info.FirstPage.Height)
			if profile.Orientation == models.OrientationAuto {
				profile.Orientation = models.OrientationPortrait
				if info.FirstPage.Landscape() {
					profile.Orientation = models.OrientationLandscape
				}
			}
		}
	}

	if err := a.printDocument(ctx, job.Path, job.Name, profile); err != nil {
		return backendError(job, profile, err, "dispatching PDF")
	}
	return nil
}

func (a *Adapter) printSpreadsheet(ctx context.Context, job models.JobDescriptor, profile models.PrintProfile) error {
	session, err := a.openSession(ctx)
	if err != nil {
		return backendError(job, profile, err, "starting office session")
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			cerr = errors.Mark(cerr, ErrSessionTeardown)
			a.logger.Warn("Session teardown for %s failed: %v", job.Name, cerr)
		}
	}()

	if err := session.Open(ctx, job.Path); err != nil {
		return backendError(job, profile, err, "opening workbook")
	}

	paper, err := session.ApplyPageSetup(profile)
	if err != nil {
		return backendError(job, profile, err, "applying page setup")
	}
	if paper != profile.PaperSize {
		a.logger.Warn("Paper size %d rejected for %s, using %s", profile.PaperSize, job.Name, paper)
		profile.PaperSize = paper
	}

	if err := session.PrintOut(ctx, profile); err != nil {
		return backendError(job, profile, err, "printing workbook")
	}
	return nil
}
