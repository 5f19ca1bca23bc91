//go:build !windows

package printer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/kpauljoseph/printdrain/pkg/models"
)

func (a *Adapter) printDocument(ctx context.Context, path, title string, profile models.PrintProfile) error {
	args := LPArgs(path, title, profile)
	a.logger.Trace("%s %s", a.lpBinary, strings.Join(args, " "))

	res := a.runner.Run(ctx, a.lpBinary, args...)
	if res.Err != nil {
		return errors.Newf("%s: %s", a.lpBinary, res.Message())
	}
	if id := strings.TrimSpace(res.Stdout); id != "" {
		a.logger.Debug("Spooler: %s", id)
	}
	return nil
}

func (a *Adapter) platformSessionOpener() SessionOpener {
	return func(ctx context.Context) (OfficeSession, error) {
		return openLibreOfficeSession(a)
	}
}

// libreOfficeSession converts the workbook to PDF with a headless office
// instance using a private profile directory, then prints the PDF with lp.
type libreOfficeSession struct {
	adapter *Adapter
	dir     string
	source  string
	pdfPath string
}

func openLibreOfficeSession(a *Adapter) (*libreOfficeSession, error) {
	dir, err := os.MkdirTemp("", "printdrain-office-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating session directory")
	}
	return &libreOfficeSession{adapter: a, dir: dir}, nil
}

func (s *libreOfficeSession) Open(ctx context.Context, path string) error {
	outDir := filepath.Join(s.dir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrap(err, "creating conversion directory")
	}

	args := []string{
		"--headless",
		"--norestore",
		"-env:UserInstallation=file://" + filepath.ToSlash(filepath.Join(s.dir, "profile")),
		"--convert-to", "pdf",
		"--outdir", outDir,
		path,
	}
	a := s.adapter
	a.logger.Trace("%s %s", a.officeBinary, strings.Join(args, " "))

	res := a.runner.Run(ctx, a.officeBinary, args...)
	if res.Err != nil {
		return errors.Newf("%s: %s", a.officeBinary, res.Message())
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	pdfPath := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return errors.Wrapf(err, "%s produced no PDF for %s", a.officeBinary, filepath.Base(path))
	}

	s.source = path
	s.pdfPath = pdfPath
	return nil
}

func (s *libreOfficeSession) ApplyPageSetup(profile models.PrintProfile) (models.PaperSize, error) {
	if s.pdfPath == "" {
		return profile.PaperSize, errors.New("no workbook open")
	}
	if _, ok := profile.PaperSize.MediaName(); !ok {
		return models.FallbackPaperSize, nil
	}
	return profile.PaperSize, nil
}

func (s *libreOfficeSession) PrintOut(ctx context.Context, profile models.PrintProfile) error {
	if s.pdfPath == "" {
		return errors.New("no workbook open")
	}
	return s.adapter.printDocument(ctx, s.pdfPath, filepath.Base(s.source), profile)
}

func (s *libreOfficeSession) Close() error {
	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.dir = ""
	return err
}
