package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"costreport/internal/config"
	"costreport/internal/errors"
	"costreport/internal/infracost"
)

const testBreakdown = `{
  "version": "0.2",
  "currency": "USD",
  "totalMonthlyCost": "1000.00",
  "totalHourlyCost": "1.3698630137",
  "projects": [
    {
      "name": "infra/ecs",
      "breakdown": {
        "resources": [
          {"name": "aws_nat_gateway.main", "monthlyCost": "32.85"},
          {"name": "aws_ecs_service.api", "monthlyCost": "600.00"},
          {"name": "aws_ecs_service.worker", "monthlyCost": 367.15}
        ]
      }
    }
  ]
}`

func writeBreakdown(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "infracost.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "infracost")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

// resetFlags restores every flag to its default so tests can share rootCmd
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("failed to reset flag %s: %v", f.Name, err)
		}
		f.Changed = false
	}
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)
}

// Test helper to capture command output
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func assertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s not to be written, stat returned %v", path, err)
	}
}

func TestCommandStructure(t *testing.T) {
	expectedCommands := []string{"version", "formats"}

	for _, cmdName := range expectedCommands {
		t.Run("command_"+cmdName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{cmdName})
			if err != nil {
				t.Errorf("command '%s' not found: %v", cmdName, err)
			}
			if cmd.Name() != cmdName {
				t.Errorf("expected command name '%s', got '%s'", cmdName, cmd.Name())
			}
		})
	}
}

func TestFlagDefinitions(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "path", shorthand: "p", defValue: "."},
		{name: "output-file", shorthand: "o", defValue: "cost-report.txt"},
		{name: "format", shorthand: "f", defValue: "text"},
		{name: "infracost-bin", defValue: "infracost"},
		{name: "breakdown-file", defValue: ""},
		{name: "env-file", defValue: ""},
		{name: "config", shorthand: "c", defValue: ""},
		{name: "verbose", shorthand: "v", defValue: "false"},
		{name: "no-color", defValue: "false"},
	}

	for _, tt := range tests {
		t.Run("flag_"+tt.name, func(t *testing.T) {
			flag := rootCmd.Flags().Lookup(tt.name)
			if flag == nil {
				flag = rootCmd.PersistentFlags().Lookup(tt.name)
			}
			if flag == nil {
				t.Fatalf("flag '%s' not found", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "costreport") || !strings.Contains(stdout, "Go version:") {
		t.Errorf("unexpected version output:\n%s", stdout)
	}
}

func TestFormatsCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "formats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "json\nmarkdown\ntext\nyaml\n" {
		t.Errorf("unexpected formats output: %q", stdout)
	}
}

func TestGenerateReport(t *testing.T) {
	dir := t.TempDir()
	settings := config.Default()
	settings.BreakdownFile = writeBreakdown(t, dir, testBreakdown)
	settings.OutputFile = filepath.Join(dir, "cost-report.txt")
	settings.NoColor = true

	generatedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	err := generateReport(context.Background(), settings, stdout, stderr, func() time.Time { return generatedAt })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := os.ReadFile(settings.OutputFile)
	if err != nil {
		t.Fatalf("expected report file: %v", err)
	}

	expectedStdout := "Generating cost estimation report...\n" +
		string(saved) + "\n" +
		"Report saved to: " + settings.OutputFile + "\n"
	if stdout.String() != expectedStdout {
		t.Errorf("stdout does not match saved report\nwant:\n%s\ngot:\n%s", expectedStdout, stdout.String())
	}

	for _, want := range []string{
		"Generated: 2026-03-01 09:30:00",
		"  Total Monthly Cost:  $1,000.00",
		"  Total Hourly Cost:   $1.37",
		"  Total Annual Cost:   $12,000.00",
		"📊 PROJECT: infra/ecs",
		"  🔹 AWS_ECS_SERVICE",
		"     Total: $967.15/month",
		"     - aws_nat_gateway.main: $32.85/month",
		"  10. Regular review unused resources and rightsize instances",
	} {
		if !strings.Contains(string(saved), want) {
			t.Errorf("expected report to contain %q", want)
		}
	}

	if strings.Index(string(saved), "AWS_ECS_SERVICE") > strings.Index(string(saved), "AWS_NAT_GATEWAY") {
		t.Error("expected the larger service group first")
	}

	if stderr.Len() != 0 {
		t.Errorf("expected no diagnostics when totals add up, got:\n%s", stderr.String())
	}
}

func TestGenerateReportWarnsOnTotalMismatch(t *testing.T) {
	dir := t.TempDir()
	settings := config.Default()
	settings.BreakdownFile = writeBreakdown(t, dir,
		`{"totalMonthlyCost": "500", "projects": [{"name": "p", "breakdown": {"resources": [{"name": "a.b", "monthlyCost": "10"}]}}]}`)
	settings.OutputFile = filepath.Join(dir, "cost-report.txt")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	if err := generateReport(context.Background(), settings, stdout, stderr, time.Now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stderr.String(), "level=WARN") {
		t.Errorf("expected a warning on stderr, got:\n%s", stderr.String())
	}
	if !strings.Contains(stdout.String(), "Total Monthly Cost:  $500.00") {
		t.Error("expected the reported total to be shown unchanged")
	}
}

func TestRootCommandSuccess(t *testing.T) {
	script := writeScript(t, "cat <<'EOF'\n"+testBreakdown+"\nEOF")
	reportFile := filepath.Join(t.TempDir(), "report.txt")

	stdout, _, err := executeCommand(t, "--infracost-bin", script, "--output-file", reportFile, "--no-color")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(reportFile); err != nil {
		t.Fatalf("expected report file to be written: %v", err)
	}
	if !strings.HasSuffix(stdout, "Report saved to: "+reportFile+"\n") {
		t.Errorf("expected saved message at the end of stdout, got:\n%s", stdout)
	}
}

func TestRootCommandEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("COSTREPORT_TEST_COST=42.00\n"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	script := writeScript(t, `echo "{\"totalMonthlyCost\": \"$COSTREPORT_TEST_COST\"}"`)
	reportFile := filepath.Join(dir, "report.txt")

	stdout, _, err := executeCommand(t, "--infracost-bin", script, "--env-file", envPath, "--output-file", reportFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Total Monthly Cost:  $42.00") {
		t.Errorf("expected infracost to see the env file variables, got:\n%s", stdout)
	}
}

func TestRootCommandToolFailure(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	tests := []struct {
		name          string
		binary        func(t *testing.T) string
		errorType     errors.ErrorType
		expectMessage string
	}{
		{
			name: "tool exits with status 2",
			binary: func(t *testing.T) string {
				return writeScript(t, "echo 'no terraform files found' >&2\nexit 2")
			},
			errorType:     errors.ToolExecErrorType,
			expectMessage: "Error running infracost: exit status 2",
		},
		{
			name: "tool not installed",
			binary: func(t *testing.T) string {
				return filepath.Join(dir, "missing-infracost")
			},
			errorType:     errors.ToolNotFoundErrorType,
			expectMessage: infracost.InstallHint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "--infracost-bin", tt.binary(t))
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !errors.IsErrorType(err, tt.errorType) {
				t.Errorf("expected error type %s, got %s", tt.errorType, errors.GetErrorType(err))
			}
			if code := errors.GetExitCode(err); code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if message := errors.FormatErrorForUser(err); !strings.HasPrefix(message, tt.expectMessage) {
				t.Errorf("expected message starting with %q, got %q", tt.expectMessage, message)
			}
			assertNoFile(t, filepath.Join(dir, config.DefaultOutputFile))
		})
	}
}

func TestRootCommandInvalidFormat(t *testing.T) {
	dir := t.TempDir()
	reportFile := filepath.Join(dir, "report.txt")

	_, _, err := executeCommand(t,
		"--breakdown-file", writeBreakdown(t, dir, testBreakdown),
		"--output-file", reportFile,
		"--format", "pdf")

	if !errors.IsErrorType(err, errors.ValidationErrorType) {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
	if code := errors.GetExitCode(err); code != 5 {
		t.Errorf("expected exit code 5, got %d", code)
	}
	assertNoFile(t, reportFile)
}

func TestRootCommandFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	reportFile := filepath.Join(dir, "from-config.txt")
	breakdown := writeBreakdown(t, dir, testBreakdown)

	settingsFile := filepath.Join(dir, "costreport.toml")
	content := "output_file = \"" + filepath.ToSlash(reportFile) + "\"\n" +
		"format = \"markdown\"\n" +
		"breakdown_file = \"" + filepath.ToSlash(breakdown) + "\"\n" +
		"no_color = true\n"
	if err := os.WriteFile(settingsFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if _, _, err := executeCommand(t, "--config", settingsFile, "--format", "JSON"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("expected report at the configured path: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(saved, &doc); err != nil {
		t.Fatalf("expected the --format flag to win over the settings file, got:\n%s", saved)
	}
	if doc["totalMonthlyCost"] != 1000.0 {
		t.Errorf("unexpected totalMonthlyCost %v", doc["totalMonthlyCost"])
	}
}

func TestRootCommandBadConfig(t *testing.T) {
	_, _, err := executeCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))

	if !errors.IsErrorType(err, errors.ConfigErrorType) {
		t.Fatalf("expected CONFIG error, got %v", err)
	}
	if code := errors.GetExitCode(err); code != 4 {
		t.Errorf("expected exit code 4, got %d", code)
	}
}
