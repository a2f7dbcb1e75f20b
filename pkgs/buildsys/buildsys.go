// Package buildsys defines the contract between the build orchestrator and
// an external build system such as CMake.
package buildsys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
)

// Tool drives one configured build tree through its lifecycle. Every step
// blocks until the external process exits; cancelling ctx kills it.
type Tool interface {
	// Configure prepares the build tree from the generated files.
	Configure(ctx context.Context) error
	// Build compiles the configured tree.
	Build(ctx context.Context) error
	// Install copies the built artifacts into the package directory.
	Install(ctx context.Context) error
}

// ExitError reports an external process that exited with a non-zero code.
type ExitError struct {
	Cmd    string
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Cmd, e.Code)
}

// Command is an external process invocation with captured output.
type Command struct {
	Bin  string
	Args []string
	Dir  string
	// Env is merged over the current process environment.
	Env map[string]string
	// Mirror, if set, receives the output while it is captured.
	Mirror io.Writer
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Bin}, c.Args...), " ")
}

// Run runs c. A non-zero exit is returned as *ExitError carrying the
// combined stdout and stderr.
func (c *Command) Run(ctx context.Context) error {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	cmd.Dir = c.Dir
	var w io.Writer = &out
	if c.Mirror != nil {
		w = io.MultiWriter(&out, c.Mirror)
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if len(c.Env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), c.Env)
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", c.Bin, ctxErr)
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Cmd: c.String(), Code: ee.ExitCode(), Output: out.String()}
	}
	return fmt.Errorf("run %s: %w", c.Bin, err)
}

// MergeEnv returns base with override applied, sorted by key.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	out := make([]string, 0, len(envMap))
	for k, v := range envMap {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}
