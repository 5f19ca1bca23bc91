// Package archive moves printed files into a mirrored archive tree and
// prunes the source directories they leave empty.
package archive

import (
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"

	"github.com/kpauljoseph/printdrain/internal/classifier"
	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
	"github.com/kpauljoseph/printdrain/pkg/utils"
)

var (
	// ErrMove is terminal for the job.
	ErrMove = errors.New("archive move failed")
	// ErrPruneFailed leaves the directory in place and is logged only.
	ErrPruneFailed = errors.New("prune failed")
)

type Archiver struct {
	sourceRoot  string
	archiveRoot string
	logger      *logger.Logger
}

func New(sourceRoot, archiveRoot string, log *logger.Logger) (*Archiver, error) {
	src, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, errors.Wrap(err, "resolving source root")
	}
	dst, err := filepath.Abs(archiveRoot)
	if err != nil {
		return nil, errors.Wrap(err, "resolving archive root")
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create archive directory")
	}

	return &Archiver{
		sourceRoot:  src,
		archiveRoot: dst,
		logger:      log,
	}, nil
}

func (a *Archiver) SourceRoot() string {
	return a.sourceRoot
}

// Destination maps a source path to its mirrored archive path.
func (a *Archiver) Destination(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(a.sourceRoot, abs)
	if err != nil || rel == "." || !utils.IsWithin(a.sourceRoot, abs) {
		return "", errors.Newf("%s is not below %s", path, a.sourceRoot)
	}
	return filepath.Join(a.archiveRoot, rel), nil
}

// Archive moves path under the archive root and prunes emptied ancestors.
// Prune failures are logged and do not fail the call.
func (a *Archiver) Archive(path string) (models.ArchiveResult, error) {
	result := models.ArchiveResult{Source: path}

	dest, err := a.Destination(path)
	if err != nil {
		return result, errors.Mark(err, ErrMove)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return result, errors.Mark(errors.Wrapf(err, "creating %s", filepath.Dir(dest)), ErrMove)
	}
	if err := a.moveFile(path, dest); err != nil {
		return result, errors.Mark(errors.Wrapf(err, "moving %s to %s", path, dest), ErrMove)
	}
	result.Destination = dest
	a.logger.Info("Archived: %s", dest)

	pruned, err := a.Prune(filepath.Dir(path))
	result.Pruned = pruned
	if err != nil {
		a.logger.Warn("%v", err)
	}
	return result, nil
}

// Prune removes dir and then each ancestor while they hold nothing but
// lock files, stopping at the source root or the first non-empty directory.
func (a *Archiver) Prune(dir string) ([]string, error) {
	var pruned []string

	current, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Mark(err, ErrPruneFailed)
	}

	for current != a.sourceRoot && utils.IsWithin(a.sourceRoot, current) {
		empty, locks, err := onlyLockFiles(current)
		if err != nil {
			return pruned, errors.Mark(errors.Wrapf(err, "checking %s", current), ErrPruneFailed)
		}
		if !empty {
			break
		}

		for _, lock := range locks {
			if err := os.Remove(lock); err != nil && !os.IsNotExist(err) {
				return pruned, errors.Mark(errors.Wrapf(err, "removing lock file %s", lock), ErrPruneFailed)
			}
		}
		if err := os.Remove(current); err != nil {
			return pruned, errors.Mark(errors.Wrapf(err, "removing %s", current), ErrPruneFailed)
		}

		a.logger.Info("Removed empty directory: %s", current)
		pruned = append(pruned, current)
		current = filepath.Dir(current)
	}

	return pruned, nil
}

// onlyLockFiles reports whether dir contains nothing except lock files,
// returning their paths.
func onlyLockFiles(dir string) (bool, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, nil, err
	}

	var locks []string
	for _, e := range entries {
		if e.IsDir() || !classifier.IsLockFile(e.Name()) {
			return false, nil, nil
		}
		locks = append(locks, filepath.Join(dir, e.Name()))
	}
	return true, locks, nil
}

// moveFile renames src over dst, copying when the roots are on different
// devices. An existing dst is replaced.
func (a *Archiver) moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	return a.copyAndRemove(src, dst)
}

// copyAndRemove copies src to dst and removes src. The copy keeps the
// source modification time when the filesystem allows it.
func (a *Archiver) copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		a.logger.Debug("Could not keep modification time on %s: %v", dst, err)
	}

	in.Close()
	return os.Remove(src)
}
