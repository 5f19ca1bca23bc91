package models

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// PaperSize is a spreadsheet-host paper code (XlPaperSize numbering).
type PaperSize int

const (
	PaperLetter     PaperSize = 1
	PaperLegal      PaperSize = 5
	PaperA3         PaperSize = 8
	PaperA4         PaperSize = 9
	PaperA5         PaperSize = 11
	PaperB5         PaperSize = 13
	PaperContinuous PaperSize = 132
)

const FallbackPaperSize = PaperA4

var mediaNames = map[PaperSize]string{
	PaperLetter:     "Letter",
	PaperLegal:      "Legal",
	PaperA3:         "A3",
	PaperA4:         "A4",
	PaperA5:         "A5",
	PaperB5:         "B5",
	PaperContinuous: "Custom.377x279mm",
}

// MediaName returns the CUPS media keyword for the paper code.
func (p PaperSize) MediaName() (string, bool) {
	name, ok := mediaNames[p]
	return name, ok
}

func (p PaperSize) String() string {
	if name, ok := p.MediaName(); ok {
		return fmt.Sprintf("%d (%s)", int(p), name)
	}
	return fmt.Sprintf("%d", int(p))
}

type Orientation int

const (
	OrientationAuto Orientation = iota
	OrientationPortrait
	OrientationLandscape
)

func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "", "auto":
		return OrientationAuto, nil
	case "portrait":
		return OrientationPortrait, nil
	case "landscape":
		return OrientationLandscape, nil
	default:
		return OrientationAuto, errors.Newf("unknown orientation %q", s)
	}
}

func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscape:
		return "landscape"
	default:
		return "auto"
	}
}

// PrintProfile is the page setup applied to one job. FitToPage wins over
// Zoom; an empty Printer selects the system default.
type PrintProfile struct {
	Printer     string
	PaperSize   PaperSize
	Zoom        int
	FitToPage   bool
	Orientation Orientation
	MaxPages    int
}

func (p PrintProfile) PrinterLabel() string {
	if p.Printer == "" {
		return "(system default)"
	}
	return p.Printer
}

func (p PrintProfile) ScalingLabel() string {
	if p.FitToPage {
		return "fit-to-page"
	}
	return fmt.Sprintf("zoom %d%%", p.Zoom)
}
