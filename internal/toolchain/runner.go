package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// outputTailLines is how much command output a CommandError keeps.
const outputTailLines = 20

// Runner executes external commands.
type Runner interface {
	// Run executes name with args in dir and returns its combined output.
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	// Env is appended to the current process environment.
	Env []string
}

// NewExecRunner returns a runner that inherits the process environment.
func NewExecRunner(env ...string) *ExecRunner {
	return &ExecRunner{Env: env}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, &CommandError{
			Command: strings.Join(append([]string{name}, args...), " "),
			Output:  tail(output, outputTailLines),
			Err:     err,
		}
	}

	return output, nil
}

// CommandError is returned when an external command fails.
type CommandError struct {
	// Command is the command line that failed.
	Command string
	// Output is the tail of the combined output.
	Output string
	// Err is the exec error, usually *exec.ExitError.
	Err error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}

	return fmt.Sprintf("%s: %v\n%s", e.Command, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// tail returns at most n trailing lines of output.
func tail(output []byte, n int) string {
	lines := bytes.Split(bytes.TrimRight(output, "\r\n"), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return string(bytes.Join(lines, []byte("\n")))
}
