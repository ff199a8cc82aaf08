package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	monerrors "github.com/jamesprial/pi-monitor/internal/errors"
)

// Compile-time interface check.
var _ Runner = (*ExecRunner)(nil)

// ExecRunner runs commands as child processes. The argument vector is passed
// to the kernel as-is and never interpreted by a shell.
type ExecRunner struct {
	// Timeout bounds each invocation. Zero waits for the command forever.
	Timeout time.Duration
}

// NewExecRunner returns an ExecRunner with the given per-command timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes argv and returns its stdout. Failure to start the command,
// a non-zero exit, or an expired timeout produce a *errors.CommandError.
func (r *ExecRunner) Run(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, &monerrors.CommandError{ExitCode: -1, Err: errors.New("empty command")}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	cmdErr := &monerrors.CommandError{
		Argv:     append([]string(nil), argv...),
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		cmdErr.Err = fmt.Errorf("%w: %w", ctxErr, err)
		return nil, cmdErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	return nil, cmdErr
}
