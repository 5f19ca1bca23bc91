package printer

import (
	"context"

	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

// DryRunBackend logs each job instead of printing it.
type DryRunBackend struct {
	logger *logger.Logger
}

func NewDryRunBackend(log *logger.Logger) *DryRunBackend {
	return &DryRunBackend{logger: log}
}

func (d *DryRunBackend) Print(_ context.Context, job models.JobDescriptor, profile models.PrintProfile) error {
	d.logger.Info("[DRY] Would print %s %s on %s (paper %s, %s, %s)",
		job.Kind, job.Path, profile.PrinterLabel(), profile.PaperSize, profile.ScalingLabel(), profile.Orientation)
	return nil
}
