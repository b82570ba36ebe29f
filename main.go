// Package main provides the entry point for the costreport cost estimation tool.
//
// costreport runs "infracost breakdown" against a Terraform directory and
// renders the JSON breakdown as a report grouped by project and service, with
// monthly, hourly and annual totals and a fixed list of cost optimization
// recommendations. The report is printed and saved to cost-report.txt.
//
// Usage:
//
//	costreport [flags]
//	costreport formats
//	costreport version
//
// For detailed usage information, run: costreport --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"costreport/cmd"
	"costreport/internal/console"
	"costreport/internal/errors"
)

// main executes the CLI and maps errors to user messages and exit codes.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		out := console.New(os.Stdout, os.Stderr, os.Getenv("NO_COLOR") != "")
		if reportErr, ok := err.(*errors.ReportError); ok {
			out.Error(errors.FormatErrorForUser(reportErr))
			os.Exit(errors.GetExitCode(reportErr))
		} else {
			// Handle unexpected errors
			out.Error(fmt.Sprintf("Error: %v\n", err))
			os.Exit(1)
		}
	}
}
