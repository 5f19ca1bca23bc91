package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/kpauljoseph/printdrain/internal/classifier"
	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *DirectoryScanner {
	return &DirectoryScanner{
		logger: logger,
	}
}

// FindBatches walks root depth-first and returns one batch per directory
// holding at least one job. Batches come in post-order: every directory
// appears after all of its subdirectories.
func (s *DirectoryScanner) FindBatches(ctx context.Context, root string) ([]models.DirectoryBatch, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "error resolving %s", root)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "error accessing path %s", root)
	}
	if !info.IsDir() {
		return nil, errors.Newf("%s is not a directory", root)
	}

	var batches []models.DirectoryBatch
	if err := s.walk(ctx, absRoot, absRoot, 0, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

func (s *DirectoryScanner) walk(ctx context.Context, root, dir string, depth int, batches *[]models.DirectoryBatch) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.logger.Trace("Scanning directory: %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "error accessing path %s", dir)
	}

	for _, e := range entries {
		if e.IsDir() {
			if err := s.walk(ctx, root, filepath.Join(dir, e.Name()), depth+1, batches); err != nil {
				return err
			}
		}
	}

	jobs := jobsFrom(dir, entries)
	if len(jobs) == 0 {
		return nil
	}

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		rel = dir
	}
	s.logger.Debug("Found %d job(s) in %s", len(jobs), rel)

	*batches = append(*batches, models.DirectoryBatch{
		Dir:   dir,
		Rel:   rel,
		Depth: depth,
		Jobs:  jobs,
	})
	return nil
}

// ListJobs enumerates the jobs directly inside dir in name order.
func (s *DirectoryScanner) ListJobs(dir string) ([]models.JobDescriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "error accessing path %s", dir)
	}
	return jobsFrom(dir, entries), nil
}

func jobsFrom(dir string, entries []os.DirEntry) []models.JobDescriptor {
	var jobs []models.JobDescriptor
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		job, ok := classifier.Classify(e.Name())
		if !ok {
			continue
		}
		job.Path = filepath.Join(dir, e.Name())
		jobs = append(jobs, job)
	}
	return jobs
}

// CountJobs sums the jobs over all batches.
func CountJobs(batches []models.DirectoryBatch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Jobs)
	}
	return n
}

// Describe renders a batch location for log lines; the root is ".".
func Describe(b models.DirectoryBatch) string {
	return strings.ReplaceAll(b.Rel, string(filepath.Separator), "/")
}
