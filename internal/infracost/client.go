// Package infracost acquires cost breakdowns from the infracost CLI.
package infracost

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"

	"costreport/internal/errors"
	"costreport/internal/interfaces"
	"costreport/internal/models"
)

const (
	// DefaultBinary is the executable looked up on PATH
	DefaultBinary = "infracost"
	// DefaultPath is the directory infracost is pointed at
	DefaultPath = "."
	// InstallHint is reported when the executable cannot be located
	InstallHint = "Infracost not found. Please install: https://www.infracost.io/docs/"

	toolName = "infracost"
)

// Client runs `infracost breakdown` and parses its JSON output
type Client struct {
	binary string
	path   string
	runner interfaces.CommandRunner
	parser interfaces.BreakdownParser
	logger *slog.Logger
}

// ClientConfig holds configuration for the infracost client
type ClientConfig struct {
	Binary string
	Path   string
	Runner interfaces.CommandRunner
	Logger *slog.Logger
	// Env holds extra variables for the child, ignored when Runner is set
	Env map[string]string
}

// NewClient creates a client, filling unset fields with defaults
func NewClient(clientConfig *ClientConfig) *Client {
	if clientConfig == nil {
		clientConfig = &ClientConfig{}
	}

	c := &Client{
		binary: clientConfig.Binary,
		path:   clientConfig.Path,
		runner: clientConfig.Runner,
		parser: NewParser(),
		logger: clientConfig.Logger,
	}

	if c.binary == "" {
		c.binary = DefaultBinary
	}
	if c.path == "" {
		c.path = DefaultPath
	}
	if c.runner == nil {
		c.runner = NewExecRunner(clientConfig.Env)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	return c
}

// Args returns the arguments passed to the infracost binary
func (c *Client) Args() []string {
	return []string{"breakdown", "--path", c.path, "--format", "json"}
}

// Acquire runs infracost once and returns the parsed breakdown. Failures are
// returned as TOOL_NOT_FOUND, TOOL_EXEC or PARSE report errors; nothing is retried.
func (c *Client) Acquire(ctx context.Context) (*models.CostReport, error) {
	args := c.Args()
	c.logger.Debug("running cost tool", "binary", c.binary, "args", strings.Join(args, " "))

	stdout, stderr, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		return nil, c.classify(ctx, err, stderr)
	}

	c.logger.Debug("cost tool finished", "stdoutBytes", len(stdout), "stderrBytes", len(stderr))

	report, err := c.parser.Parse(stdout)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("parsed breakdown", "projects", len(report.Projects))
	return report, nil
}

func (c *Client) classify(ctx context.Context, err error, stderr []byte) error {
	if isNotFound(err) {
		return errors.ToolNotFoundError(InstallHint, err).
			WithContext("binary", c.binary)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.ToolExecError(fmt.Sprintf("Error running %s: %v", toolName, ctxErr), ctxErr)
	}

	reportErr := errors.ToolExecError(fmt.Sprintf("Error running %s: %v", toolName, err), err)

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		reportErr.WithContext("exitCode", exitErr.ExitCode())
	}
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		reportErr.WithContext("stderr", msg)
	}

	return reportErr
}

func isNotFound(err error) bool {
	return stderrors.Is(err, exec.ErrNotFound) ||
		stderrors.Is(err, exec.ErrDot) ||
		stderrors.Is(err, fs.ErrNotExist)
}
