// Package watch prints files as they appear in a single directory.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/kpauljoseph/printdrain/internal/classifier"
	"github.com/kpauljoseph/printdrain/internal/printer"
	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

const defaultQueueSize = 64

// Result reports the outcome for one handled file.
type Result struct {
	Job models.JobDescriptor
	Err error
}

type Watcher struct {
	dir       string
	backend   printer.Backend
	profiles  printer.Profiles
	settle    time.Duration
	queueSize int
	onHandled func(Result)
	logger    *logger.Logger

	// A full kernel queue repeats its error for every lost event.
	errLog rate.Sometimes

	ready chan struct{}
}

type Option func(*Watcher)

func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.settle = d
	}
}

// WithResults registers a callback invoked after every print attempt.
func WithResults(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onHandled = fn
	}
}

// WithQueueSize bounds how many detected files may wait for handling. When
// the queue is full, event intake pauses until the handler catches up.
func WithQueueSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

func New(dir string, backend printer.Backend, profiles printer.Profiles, log *logger.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		dir:       dir,
		backend:   backend,
		profiles:  profiles,
		settle:    8 * time.Second,
		queueSize: defaultQueueSize,
		logger:    log,
		ready:     make(chan struct{}),
		errLog:    rate.Sometimes{First: 3, Interval: time.Minute},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once the directory subscription is active.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Events are handled one at a time;
// the file being printed when ctx ends is finished before Run returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", w.dir)
	}
	w.logger.Info("Watching %s (settle delay %s)", w.dir, w.settle)
	close(w.ready)

	queue := make(chan string, w.queueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.handleLoop(ctx, queue)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopped watching %s", w.dir)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) || !w.accept(event.Name) {
				continue
			}
			w.logger.Debug("Detected %s", event.Name)
			select {
			case queue <- event.Name:
			case <-ctx.Done():
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) reportError(err error) {
	w.errLog.Do(func() {
		w.logger.Warn("Watcher error: %v", err)
	})
}

func (w *Watcher) accept(path string) bool {
	if classifier.IsLockFile(filepath.Base(path)) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

func (w *Watcher) handleLoop(ctx context.Context, queue <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-queue:
			w.handle(ctx, path)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if w.settle > 0 {
		timer := time.NewTimer(w.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	job, ok := classifier.ClassifyPath(path)
	if !ok {
		w.logger.Debug("Ignoring %s", filepath.Base(path))
		return
	}
	if _, err := os.Stat(job.Path); err != nil {
		w.logger.Warn("File disappeared before printing: %s", job.Path)
		return
	}

	profile := w.profiles.For(job)
	w.logger.Info("Printing %s [%s, %s] on %s", job.Name, job.Kind, job.Class, profile.PrinterLabel())
	err := w.backend.Print(context.WithoutCancel(ctx), job, profile)
	if err != nil {
		w.logger.Error("Print failed: %s: %v", job.Path, err)
	} else {
		w.logger.Info("Printed: %s", job.Path)
	}

	if w.onHandled != nil {
		w.onHandled(Result{Job: job, Err: err})
	}
}
