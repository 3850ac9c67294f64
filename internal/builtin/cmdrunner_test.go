package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/mosaic/internal/widget"
)

func TestCmdRunnerCapturesOutput(t *testing.T) {
	impl, err := NewCmdRunner(widget.Context{
		Name:    "echo",
		Options: map[string]any{"command": "/bin/sh", "args": []any{"-c", "echo hello widget"}},
	})
	require.NoError(t, err)

	c := impl.(*CmdRunner)
	require.NoError(t, c.Update(context.Background()))

	out, err := c.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello widget", out)
}

func TestCmdRunnerRenderBeforeFirstRun(t *testing.T) {
	impl, err := NewCmdRunner(widget.Context{
		Name:    "idle",
		Options: map[string]any{"command": "/bin/true"},
	})
	require.NoError(t, err)

	out, err := impl.(*CmdRunner).Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "waiting for first run", out)
}

func TestCmdRunnerNonZeroExit(t *testing.T) {
	impl, err := NewCmdRunner(widget.Context{
		Name:    "fail",
		Options: map[string]any{"command": "/bin/sh", "args": []any{"-c", "echo bad news >&2; exit 3"}},
	})
	require.NoError(t, err)

	err = impl.(*CmdRunner).Update(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, err.Error(), "bad news")
}

func TestCmdRunnerTimeout(t *testing.T) {
	impl, err := NewCmdRunner(widget.Context{
		Name: "slow",
		Options: map[string]any{
			"command": "/bin/sh",
			"args":    []any{"-c", "sleep 5"},
			"timeout": "50ms",
		},
	})
	require.NoError(t, err)

	c := impl.(*CmdRunner)
	c.grace = 100 * time.Millisecond

	start := time.Now()
	err = c.Update(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestCmdRunnerCanceledContext(t *testing.T) {
	impl, err := NewCmdRunner(widget.Context{
		Name:    "canceled",
		Options: map[string]any{"command": "/bin/sh", "args": []any{"-c", "sleep 5"}},
	})
	require.NoError(t, err)

	c := impl.(*CmdRunner)
	c.grace = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = c.Update(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCmdRunnerRequiresCommand(t *testing.T) {
	_, err := NewCmdRunner(widget.Context{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a command option")
}

func TestCmdRunnerRejectsBadTimeout(t *testing.T) {
	_, err := NewCmdRunner(widget.Context{
		Name:    "bad",
		Options: map[string]any{"command": "/bin/true", "timeout": "soon"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}
