package ops

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Command is one invocation of an external tool.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner runs external tools. A tool that runs and exits non-zero is
// reported through the exit code with a nil error; the error is reserved
// for failing to start, timing out, or being cancelled.
type Runner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner runs commands as child processes with their output streamed
// to the log.
type ExecRunner struct {
	L      hclog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func (r *ExecRunner) Run(ctx context.Context, c Command) (int, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if r.L != nil {
		r.L.Debug("running command", "command", c.String(), "dir", c.Dir)
	}

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return -1, fmt.Errorf("%s timed out after %s", c.Name, c.Timeout)
	}

	if ctx.Err() != nil {
		return -1, ctx.Err()
	}

	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return ee.ExitCode(), nil
		}

		return -1, errors.Wrapf(err, "running %s", c.Name)
	}

	return 0, nil
}
