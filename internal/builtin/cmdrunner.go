package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mattjoyce/mosaic/internal/widget"
)

const (
	defaultCmdTimeout = 10 * time.Second
	// cmdGracePeriod is the wait after SIGTERM before SIGKILL.
	cmdGracePeriod = 2 * time.Second
	maxOutputBytes = 64 * 1024
)

// CmdRunner executes a command on every update and renders its trimmed
// stdout. A run past its timeout gets SIGTERM, then SIGKILL after a
// grace period.
type CmdRunner struct {
	widget.Base

	command string
	args    []string
	timeout time.Duration
	grace   time.Duration

	mu     sync.Mutex
	output string
	ranAt  time.Time
}

// NewCmdRunner builds the widget. Options: command (required), args
// (array of strings), timeout (duration string).
func NewCmdRunner(wctx widget.Context) (any, error) {
	command := optString(wctx.Options, "command", "")
	if command == "" {
		return nil, fmt.Errorf("cmdrunner widget %q needs a command option", wctx.Name)
	}

	c := &CmdRunner{
		Base:    widget.Base{Ctx: wctx},
		command: command,
		args:    optStrings(wctx.Options, "args"),
		timeout: defaultCmdTimeout,
		grace:   cmdGracePeriod,
	}
	if s := optString(wctx.Options, "timeout", ""); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", s, err)
		}
		c.timeout = d
	}

	return c, nil
}

func (c *CmdRunner) Update(ctx context.Context) error {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	// Termination is managed manually, so no CommandContext here.
	cmd := exec.Command(c.command, c.args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.command, err)
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case <-timer.C:
		c.terminate(cmd, waitErr)
		return fmt.Errorf("%s timed out after %s", c.command, c.timeout)
	case <-ctx.Done():
		c.terminate(cmd, waitErr)
		return ctx.Err()
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("%s: %w%s", c.command, err, stderrTail(stderr.String()))
		}
	}

	out := stdout.String()
	if len(out) > maxOutputBytes {
		out = out[:maxOutputBytes]
	}

	c.mu.Lock()
	c.output = strings.TrimSpace(out)
	c.ranAt = time.Now()
	c.mu.Unlock()
	return nil
}

// terminate sends SIGTERM, waits out the grace period, then SIGKILL.
func (c *CmdRunner) terminate(cmd *exec.Cmd, waitErr <-chan error) {
	if cmd.Process == nil {
		return
	}
	logger := c.Ctx.Logger

	if logger != nil {
		logger.Warn("command ran too long, sending SIGTERM", "command", c.command)
	}
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && logger != nil {
		logger.Error("failed to send SIGTERM", "error", err)
	}

	grace := time.NewTimer(c.grace)
	defer grace.Stop()
	select {
	case <-waitErr:
	case <-grace.C:
		if logger != nil {
			logger.Warn("command did not exit after SIGTERM, sending SIGKILL", "command", c.command)
		}
		if err := cmd.Process.Kill(); err != nil && logger != nil {
			logger.Error("failed to send SIGKILL", "error", err)
		}
		<-waitErr
	}
}

func (c *CmdRunner) Render(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ranAt.IsZero() {
		return "waiting for first run", nil
	}
	return c.output, nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) > 256 {
		s = s[len(s)-256:]
	}
	return ": " + s
}
