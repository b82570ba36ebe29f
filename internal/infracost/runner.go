package infracost

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"sort"
)

// ExecRunner runs commands as child processes of the current process
type ExecRunner struct {
	// Env is appended to the inherited environment, later entries win
	Env []string
}

// NewExecRunner creates a runner backed by os/exec. The child sees the
// current environment plus env.
func NewExecRunner(env map[string]string) *ExecRunner {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	r := &ExecRunner{}
	for _, key := range keys {
		r.Env = append(r.Env, key+"="+env[key])
	}
	return r
}

// Run executes the command to completion, capturing stdout and stderr
// separately. The child is killed if ctx is cancelled.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
