package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. Tests substitute it to record
// invocations or point binaries at stubs.
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor uses os/exec directly.
type RealExecutor struct{}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// RecordingExecutor wraps another Executor and remembers every argv it was
// asked to build.
type RecordingExecutor struct {
	Next  Executor
	Calls [][]string
}

// CommandContext records the call and delegates.
func (r *RecordingExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	r.Calls = append(r.Calls, append([]string{name}, args...))
	next := r.Next
	if next == nil {
		next = &RealExecutor{}
	}
	return next.CommandContext(ctx, name, args...)
}
