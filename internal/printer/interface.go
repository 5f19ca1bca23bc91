package printer

import (
	"context"

	"github.com/kpauljoseph/printdrain/pkg/models"
)

// Backend prints one classified job with a resolved profile. Printing is
// not idempotent: calling Print twice prints twice.
type Backend interface {
	Print(ctx context.Context, job models.JobDescriptor, profile models.PrintProfile) error
}

// Inspector reads PDF page geometry before dispatch.
type Inspector interface {
	Inspect(path string) (PDFInfo, error)
}

type PDFInfo struct {
	PageCount int
	FirstPage models.PageDimensions
}

// OfficeSession is one office-automation session. It is acquired per
// spreadsheet job and must be closed on every path.
type OfficeSession interface {
	Open(ctx context.Context, path string) error
	// ApplyPageSetup applies the profile to every sheet and returns the
	// paper size actually in effect.
	ApplyPageSetup(profile models.PrintProfile) (models.PaperSize, error)
	PrintOut(ctx context.Context, profile models.PrintProfile) error
	Close() error
}

type SessionOpener func(ctx context.Context) (OfficeSession, error)
