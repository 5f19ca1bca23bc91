//go:build windows

package printer

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"

	"github.com/kpauljoseph/printdrain/pkg/models"
)

const (
	xlPortrait  = 1
	xlLandscape = 2

	// Excel clamps PrintOut's To argument to the last page.
	xlLastPage = 32767

	sFalse = 0x00000001
)

// printDocument hands the file to the registered PDF handler. Page setup is
// controlled by the handler, so only the printer is honoured.
func (a *Adapter) printDocument(_ context.Context, path, _ string, profile models.PrintProfile) error {
	verb, params := "print", ""
	if profile.Printer != "" {
		verb, params = "printto", `"`+profile.Printer+`"`
	}

	verbPtr, err := windows.UTF16PtrFromString(verb)
	if err != nil {
		return err
	}
	filePtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	dirPtr, err := windows.UTF16PtrFromString(filepath.Dir(path))
	if err != nil {
		return err
	}
	var paramsPtr *uint16
	if params != "" {
		if paramsPtr, err = windows.UTF16PtrFromString(params); err != nil {
			return err
		}
	}

	if err := windows.ShellExecute(0, verbPtr, filePtr, paramsPtr, dirPtr, windows.SW_HIDE); err != nil {
		return errors.Wrapf(err, "ShellExecute %s", verb)
	}
	return nil
}

func (a *Adapter) platformSessionOpener() SessionOpener {
	return func(ctx context.Context) (OfficeSession, error) {
		return openExcelSession()
	}
}

type setupProp struct {
	name  string
	value interface{}
}

// excelSession drives Excel over COM. COM objects are bound to the OS
// thread that initialised them, so the goroutine stays locked until Close.
type excelSession struct {
	app      *ole.IDispatch
	workbook *ole.IDispatch
}

func openExcelSession() (*excelSession, error) {
	runtime.LockOSThread()
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			runtime.UnlockOSThread()
			return nil, errors.Wrap(err, "CoInitializeEx")
		}
	}

	unknown, err := oleutil.CreateObject("Excel.Application")
	if err != nil {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
		return nil, errors.Wrap(err, "creating Excel.Application")
	}
	app, err := unknown.QueryInterface(ole.IID_IDispatch)
	unknown.Release()
	if err != nil {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
		return nil, errors.Wrap(err, "querying Excel dispatch")
	}

	s := &excelSession{app: app}
	if _, err := oleutil.PutProperty(app, "Visible", false); err != nil {
		return nil, errors.CombineErrors(errors.Wrap(err, "hiding Excel"), s.Close())
	}
	if _, err := oleutil.PutProperty(app, "DisplayAlerts", false); err != nil {
		return nil, errors.CombineErrors(errors.Wrap(err, "disabling alerts"), s.Close())
	}
	return s, nil
}

func (s *excelSession) Open(_ context.Context, path string) error {
	workbooks, err := oleutil.GetProperty(s.app, "Workbooks")
	if err != nil {
		return errors.Wrap(err, "Workbooks")
	}
	books := workbooks.ToIDispatch()
	defer books.Release()

	// Open(Filename, UpdateLinks, ReadOnly)
	wb, err := oleutil.CallMethod(books, "Open", path, 0, true)
	if err != nil {
		return errors.Wrapf(err, "Workbooks.Open %s", path)
	}
	s.workbook = wb.ToIDispatch()
	return nil
}

func (s *excelSession) ApplyPageSetup(profile models.PrintProfile) (models.PaperSize, error) {
	if s.workbook == nil {
		return profile.PaperSize, errors.New("no workbook open")
	}

	worksheets, err := oleutil.GetProperty(s.workbook, "Worksheets")
	if err != nil {
		return profile.PaperSize, errors.Wrap(err, "Worksheets")
	}
	sheets := worksheets.ToIDispatch()
	defer sheets.Release()

	countVar, err := oleutil.GetProperty(sheets, "Count")
	if err != nil {
		return profile.PaperSize, errors.Wrap(err, "Worksheets.Count")
	}

	effective := profile.PaperSize
	for i := 1; i <= int(countVar.Val); i++ {
		paper, err := applySheetSetup(sheets, i, profile)
		if err != nil {
			return effective, err
		}
		if paper != profile.PaperSize {
			effective = paper
		}
	}
	return effective, nil
}

func applySheetSetup(sheets *ole.IDispatch, index int, profile models.PrintProfile) (models.PaperSize, error) {
	item, err := oleutil.GetProperty(sheets, "Item", index)
	if err != nil {
		return profile.PaperSize, errors.Wrapf(err, "sheet %d", index)
	}
	sheet := item.ToIDispatch()
	defer sheet.Release()

	setupVar, err := oleutil.GetProperty(sheet, "PageSetup")
	if err != nil {
		return profile.PaperSize, errors.Wrapf(err, "sheet %d PageSetup", index)
	}
	setup := setupVar.ToIDispatch()
	defer setup.Release()

	paper := profile.PaperSize
	if _, err := oleutil.PutProperty(setup, "PaperSize", int(paper)); err != nil {
		paper = models.FallbackPaperSize
		if _, err := oleutil.PutProperty(setup, "PaperSize", int(paper)); err != nil {
			return paper, errors.Wrapf(err, "sheet %d PaperSize", index)
		}
	}

	props := []setupProp{
		{"Zoom", profile.Zoom},
		{"FitToPagesWide", false},
		{"FitToPagesTall", false},
	}
	if profile.FitToPage {
		props = []setupProp{
			{"Zoom", false},
			{"FitToPagesWide", 1},
			{"FitToPagesTall", 1},
		}
	}
	switch profile.Orientation {
	case models.OrientationPortrait:
		props = append(props, setupProp{"Orientation", xlPortrait})
	case models.OrientationLandscape:
		props = append(props, setupProp{"Orientation", xlLandscape})
	}

	for _, p := range props {
		if _, err := oleutil.PutProperty(setup, p.name, p.value); err != nil {
			return paper, errors.Wrapf(err, "sheet %d %s", index, p.name)
		}
	}
	return paper, nil
}

func (s *excelSession) PrintOut(_ context.Context, profile models.PrintProfile) error {
	if s.workbook == nil {
		return errors.New("no workbook open")
	}

	to := xlLastPage
	if profile.MaxPages > 0 {
		to = profile.MaxPages
	}

	// PrintOut(From, To, Copies, Preview, ActivePrinter)
	args := []interface{}{1, to, 1, false}
	if profile.Printer != "" {
		args = append(args, profile.Printer)
	}
	if _, err := oleutil.CallMethod(s.workbook, "PrintOut", args...); err != nil {
		return errors.Wrap(err, "Workbook.PrintOut")
	}
	return nil
}

// Close closes the workbook without saving, quits Excel and releases COM.
func (s *excelSession) Close() error {
	var errs error
	if s.workbook != nil {
		if _, err := oleutil.CallMethod(s.workbook, "Close", false); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "Workbook.Close"))
		}
		s.workbook.Release()
		s.workbook = nil
	}
	if s.app != nil {
		if _, err := oleutil.CallMethod(s.app, "Quit"); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "Application.Quit"))
		}
		s.app.Release()
		s.app = nil
		ole.CoUninitialize()
		runtime.UnlockOSThread()
	}
	return errs
}
