package interfaces

import (
	"context"

	"costreport/internal/models"
)

// CostSource defines the interface for acquiring a cost breakdown
type CostSource interface {
	// Acquire returns the parsed breakdown, running the cost tool if needed
	Acquire(ctx context.Context) (*models.CostReport, error)
}

// CommandRunner runs an external command and captures its output
type CommandRunner interface {
	// Run executes name with args and returns captured stdout and stderr.
	// A non-zero exit is reported as an error alongside the captured output.
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// BreakdownParser defines the interface for parsing cost tool output
type BreakdownParser interface {
	// Parse decodes a JSON breakdown document
	Parse(data []byte) (*models.CostReport, error)
}

// OutputFormatter defines the interface for rendering a cost summary
type OutputFormatter interface {
	// Format renders the summary according to the formatter's type
	Format(summary *models.Summary) (string, error)

	// FormatType returns the format type (e.g., "text", "json", "yaml")
	FormatType() string
}
