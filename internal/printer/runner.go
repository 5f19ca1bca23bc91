package printer

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// RunResult holds the outcome of one external command.
type RunResult struct {
	Stdout string
	Stderr string
	Err    error
}

// Message is the most useful one-line description of a failed run.
func (r RunResult) Message() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Stdout); s != "" {
		return s
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}

type Runner interface {
	Run(ctx context.Context, name string, args ...string) RunResult
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) RunResult {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}
}
