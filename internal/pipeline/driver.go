// Package pipeline drains a source tree directory by directory: every job
// is printed, archived and throttled before the next one starts.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/kpauljoseph/printdrain/internal/archive"
	"github.com/kpauljoseph/printdrain/internal/config"
	"github.com/kpauljoseph/printdrain/internal/ledger"
	"github.com/kpauljoseph/printdrain/internal/printer"
	"github.com/kpauljoseph/printdrain/internal/scanner"
	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
	"github.com/kpauljoseph/printdrain/pkg/utils"
)

// ErrJobFailed marks the error returned when fail-fast stops a run.
var ErrJobFailed = errors.New("job failed")

var errVanished = errors.New("file vanished before dispatch")

type Driver struct {
	cfg        *config.Config
	backend    printer.Backend
	profiles   printer.Profiles
	archiver   *archive.Archiver
	scanner    *scanner.DirectoryScanner
	checkpoint Checkpoint
	ledger     *ledger.Ledger
	dryRun     bool
	logger     *logger.Logger
	now        func() time.Time

	mu    sync.Mutex
	state State
}

type Option func(*Driver)

// WithCheckpoint replaces the terminal prompter used when checkpoints are
// enabled.
func WithCheckpoint(c Checkpoint) Option {
	return func(d *Driver) {
		d.checkpoint = c
	}
}

func WithLedger(l *ledger.Ledger) Option {
	return func(d *Driver) {
		d.ledger = l
	}
}

// WithDryRun leaves files in place instead of archiving them.
func WithDryRun(dryRun bool) Option {
	return func(d *Driver) {
		d.dryRun = dryRun
	}
}

func NewDriver(cfg *config.Config, backend printer.Backend, archiver *archive.Archiver, log *logger.Logger, opts ...Option) *Driver {
	d := &Driver{
		cfg:      cfg,
		backend:  backend,
		profiles: printer.NewProfiles(cfg),
		archiver: archiver,
		scanner:  scanner.New(log),
		logger:   log,
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.checkpoint == nil && cfg.CheckpointEnabled {
		d.checkpoint = NewPrompter(os.Stdin, os.Stdout, cfg.CheckpointTimeout, log)
	}
	if !cfg.CheckpointEnabled || d.dryRun {
		d.checkpoint = nil
	}
	return d
}

// State is safe to call while Run is in progress.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	prev := d.state
	d.state = s
	d.mu.Unlock()

	if prev != s {
		d.logger.Debug("State %s -> %s", prev, s)
	}
}

// Run processes the whole source tree. The report is always returned; the
// error is non-nil when the run stopped early.
func (d *Driver) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:     uuid.NewString(),
		StartTime: d.now(),
	}
	defer func() {
		report.EndTime = d.now()
	}()

	root := d.archiver.SourceRoot()
	d.logger.Info("Run %s: %s -> %s (failure policy %s)", report.RunID, root, d.cfg.ArchiveDir, d.cfg.FailurePolicy)

	batches, err := d.scanner.FindBatches(ctx, root)
	if err != nil {
		d.setState(StateAborted)
		report.Aborted = true
		return report, errors.Wrapf(err, "scanning %s", root)
	}
	report.Discovered = scanner.CountJobs(batches)
	d.logger.Info("Found %d job(s) in %d director(ies)", report.Discovered, len(batches))

	for i, batch := range batches {
		succeeded, err := d.runBatch(ctx, batch, report)
		if err != nil {
			d.setState(StateAborted)
			report.Aborted = true
			return report, err
		}

		if d.checkpoint != nil && succeeded > 0 && i < len(batches)-1 {
			d.setState(StateCheckpointWait)
			if err := d.checkpoint.Wait(ctx, batch); err != nil {
				d.setState(StateAborted)
				report.Aborted = true
				return report, err
			}
		}
	}

	d.setState(StateDone)
	return report, nil
}

func (d *Driver) runBatch(ctx context.Context, batch models.DirectoryBatch, report *models.RunReport) (int, error) {
	d.setState(StateEnumeratingDirectory)

	if _, err := os.Stat(batch.Dir); os.IsNotExist(err) {
		d.logger.Warn("Directory disappeared, skipping: %s", batch.Dir)
		return 0, nil
	}
	jobs, err := d.scanner.ListJobs(batch.Dir)
	if err != nil {
		return 0, errors.Wrapf(err, "listing %s", batch.Dir)
	}
	d.logger.Info("Processing %s (%d job(s))", scanner.Describe(batch), len(jobs))

	succeeded := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("Interrupted")
			return succeeded, err
		}

		jobErr := d.processJob(ctx, job, report)
		if errors.Is(jobErr, errVanished) {
			continue
		}
		if jobErr == nil {
			succeeded++
		} else {
			report.Failed++
			report.Failures = append(report.Failures, models.JobFailure{Job: job, Err: jobErr})
			if d.cfg.FailurePolicy == config.FailFast {
				d.setState(StateAborted)
				return succeeded, errors.Mark(errors.Wrapf(jobErr, "stopping after %s", job.Name), ErrJobFailed)
			}
		}

		if err := d.pause(ctx); err != nil {
			return succeeded, err
		}
	}
	return succeeded, nil
}

// pause holds the next dispatch for the full inter-job delay, measured from
// the end of the job that just completed.
func (d *Driver) pause(ctx context.Context) error {
	if d.cfg.Delay <= 0 {
		return nil
	}
	d.logger.Trace("Waiting %s before the next job", d.cfg.Delay)

	timer := time.NewTimer(d.cfg.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		d.logger.Warn("Interrupted")
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Driver) processJob(ctx context.Context, job models.JobDescriptor, report *models.RunReport) error {
	d.setState(StateDispatchingJob)

	if _, err := os.Stat(job.Path); os.IsNotExist(err) {
		d.logger.Warn("File disappeared, skipping: %s", job.Path)
		return errVanished
	}

	rel := d.relative(job.Path)
	profile := d.profiles.For(job)

	fingerprint, alreadyPrinted := d.lookup(job, rel)
	if alreadyPrinted {
		d.logger.Info("Already printed, archiving only: %s", rel)
		report.Recovered++
	} else {
		d.logger.Info("Printing %s [%s, %s] on %s (paper %s, %s)",
			rel, job.Kind, job.Class, profile.PrinterLabel(), profile.PaperSize, profile.ScalingLabel())
		// An interrupt lets the in-flight print finish.
		if err := d.backend.Print(context.WithoutCancel(ctx), job, profile); err != nil {
			d.logger.Error("Print failed: %s: %v", rel, err)
			return err
		}
		report.Printed++
		d.record(func(l *ledger.Ledger) error {
			return l.MarkPrinted(report.RunID, fingerprint, rel, d.now())
		}, fingerprint)
	}

	d.setState(StateArchiving)
	if d.dryRun {
		dest, err := d.archiver.Destination(job.Path)
		if err != nil {
			return errors.Mark(err, archive.ErrMove)
		}
		d.logger.Info("[DRY] Would archive %s -> %s", job.Path, dest)
		report.Archived++
		return nil
	}

	result, err := d.archiver.Archive(job.Path)
	if err != nil {
		d.logger.Error("Archive failed: %s: %v", rel, err)
		return err
	}
	report.Archived++
	report.Pruned = append(report.Pruned, result.Pruned...)
	d.record(func(l *ledger.Ledger) error {
		return l.MarkArchived(report.RunID, fingerprint, rel, d.now())
	}, fingerprint)
	return nil
}

// lookup fingerprints the job when a ledger is attached and reports whether
// an earlier run printed it without archiving.
func (d *Driver) lookup(job models.JobDescriptor, rel string) (string, bool) {
	if d.ledger == nil || d.dryRun {
		return "", false
	}
	fingerprint, err := utils.FileFingerprint(job.Path)
	if err != nil {
		d.logger.Warn("Could not fingerprint %s: %v", rel, err)
		return "", false
	}
	state, err := d.ledger.State(fingerprint, rel)
	if err != nil {
		d.logger.Warn("Ledger lookup failed for %s: %v", rel, err)
		return fingerprint, false
	}
	return fingerprint, state == ledger.StatePrinted
}

func (d *Driver) record(write func(*ledger.Ledger) error, fingerprint string) {
	if d.ledger == nil || d.dryRun || fingerprint == "" {
		return
	}
	if err := write(d.ledger); err != nil {
		d.logger.Warn("Ledger update failed: %v", err)
	}
}

func (d *Driver) relative(path string) string {
	rel, err := filepath.Rel(d.archiver.SourceRoot(), path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// LogSummary writes the closing status lines for a run.
func LogSummary(log *logger.Logger, report *models.RunReport) {
	log.Info("Discovered: %d, printed: %d, recovered: %d, archived: %d, failed: %d, directories pruned: %d",
		report.Discovered, report.Printed, report.Recovered, report.Archived, report.Failed, len(report.Pruned))
	for _, f := range report.Failures {
		log.Error("Failed: %s: %v", f.Job.Path, f.Err)
	}
	elapsed := report.EndTime.Sub(report.StartTime).Round(time.Second)
	if report.Succeeded() {
		log.Info("Run %s completed successfully in %s", report.RunID, elapsed)
		return
	}
	if report.Aborted {
		log.Error("Run %s STOPPED after %s", report.RunID, elapsed)
		return
	}
	log.Error("Run %s finished with %d failure(s) in %s", report.RunID, report.Failed, elapsed)
}
