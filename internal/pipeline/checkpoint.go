package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

// Checkpoint gates the move from one directory batch to the next.
type Checkpoint interface {
	Wait(ctx context.Context, done models.DirectoryBatch) error
}

// Prompter asks the operator on a terminal whether to proceed. No answer
// within the timeout counts as "proceed now".
type Prompter struct {
	in      io.Reader
	out     io.Writer
	timeout time.Duration
	logger  *logger.Logger

	once  sync.Once
	lines chan string
}

func NewPrompter(in io.Reader, out io.Writer, timeout time.Duration, log *logger.Logger) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		timeout: timeout,
		logger:  log,
		lines:   make(chan string, 8),
	}
}

// The reader goroutine outlives individual prompts: a blocked read on a
// terminal cannot be interrupted.
func (p *Prompter) start() {
	p.once.Do(func() {
		go func() {
			defer close(p.lines)
			sc := bufio.NewScanner(p.in)
			for sc.Scan() {
				p.lines <- sc.Text()
			}
		}()
	})
}

func (p *Prompter) drain() {
	for {
		select {
		case _, ok := <-p.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Wait returns nil to proceed, or the context error if cancelled.
func (p *Prompter) Wait(ctx context.Context, done models.DirectoryBatch) error {
	p.start()
	p.drain()

	lines := p.lines
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	fmt.Fprintf(p.out, "Finished %s. Press Enter or p to proceed, w to keep waiting (auto-proceed in %s): ",
		done.Rel, p.timeout)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.out)
			return ctx.Err()

		case <-timer.C:
			fmt.Fprintln(p.out)
			p.logger.Info("No response within %s, proceeding", p.timeout)
			return nil

		case line, ok := <-lines:
			if !ok {
				// Input closed; only the timer can release us now.
				lines = nil
				continue
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "p":
				p.logger.Info("Operator chose to proceed")
				return nil
			case "w":
				timer.Reset(p.timeout)
				p.logger.Info("Operator chose to wait, proceeding in %s", p.timeout)
				fmt.Fprintf(p.out, "Waiting. Press Enter or p to proceed (auto-proceed in %s): ", p.timeout)
			default:
				fmt.Fprintf(p.out, "Unrecognized answer %q. Press Enter or p to proceed, w to keep waiting: ", line)
			}
		}
	}
}
