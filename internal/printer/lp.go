package printer

import (
	"fmt"

	"github.com/kpauljoseph/printdrain/pkg/models"
)

// LPArgs builds the CUPS lp argument list for printing path with profile.
// Unknown paper codes fall back to A4.
func LPArgs(path, title string, profile models.PrintProfile) []string {
	var args []string

	if profile.Printer != "" {
		args = append(args, "-d", profile.Printer)
	}
	if title != "" {
		args = append(args, "-t", title)
	}

	media, ok := profile.PaperSize.MediaName()
	if !ok {
		media, _ = models.FallbackPaperSize.MediaName()
	}
	args = append(args, "-o", "media="+media)

	if profile.FitToPage {
		args = append(args, "-o", "fit-to-page")
	} else if profile.Zoom > 0 {
		args = append(args, "-o", fmt.Sprintf("natural-scaling=%d", profile.Zoom))
	}

	switch profile.Orientation {
	case models.OrientationPortrait:
		args = append(args, "-o", "orientation-requested=3")
	case models.OrientationLandscape:
		args = append(args, "-o", "orientation-requested=4")
	}

	if profile.MaxPages > 0 {
		args = append(args, "-P", fmt.Sprintf("1-%d", profile.MaxPages))
	}

	return append(args, "--", path)
}
