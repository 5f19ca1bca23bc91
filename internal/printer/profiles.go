package printer

import (
	"github.com/kpauljoseph/printdrain/internal/config"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

// Profiles maps routing classes to print profiles.
type Profiles struct {
	standard models.PrintProfile
	monthly  models.PrintProfile
}

func NewProfiles(cfg *config.Config) Profiles {
	return Profiles{
		standard: models.PrintProfile{
			Printer:     cfg.DefaultPrinter,
			PaperSize:   cfg.DefaultPaperSize,
			Zoom:        cfg.DefaultZoom,
			Orientation: cfg.DefaultOrientation,
			MaxPages:    cfg.MaxPages,
		},
		monthly: models.PrintProfile{
			Printer:     cfg.MonthlyPrinter,
			PaperSize:   cfg.MonthlyPaperSize,
			FitToPage:   true,
			Orientation: cfg.MonthlyOrientation,
			MaxPages:    cfg.MaxPages,
		},
	}
}

func (p Profiles) For(job models.JobDescriptor) models.PrintProfile {
	if job.Class == models.ClassMonthly {
		return p.monthly
	}
	return p.standard
}
