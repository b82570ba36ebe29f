package infracost

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"costreport/internal/errors"
	"costreport/internal/models"
)

// Parser decodes infracost breakdown JSON
type Parser struct{}

// NewParser creates a new breakdown parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a breakdown document. Missing fields default to zero values.
func (p *Parser) Parse(data []byte) (*models.CostReport, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.ParseError("cost tool produced no output").
			WithSuggestion("Run 'infracost breakdown --path . --format json' manually to inspect its output")
	}

	var report models.CostReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.ParseErrorWithCause("invalid breakdown JSON", err).
			WithSuggestion("Check that the installed infracost version supports '--format json'")
	}

	return &report, nil
}

// ParseFile reads and decodes a breakdown document saved to disk
func (p *Parser) ParseFile(filePath string) (*models.CostReport, error) {
	if filePath == "" {
		return nil, errors.FileError("breakdown file path cannot be empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.FileErrorWithCause("failed to read breakdown file", err).
			WithContext("filePath", filePath).
			WithSuggestion("Generate one with 'infracost breakdown --path . --format json --out-file infracost.json'")
	}

	report, err := p.Parse(data)
	if err != nil {
		return nil, errors.WrapError(err, "", "failed to parse breakdown file").
			WithContext("filePath", filePath)
	}

	return report, nil
}

// FileSource serves a breakdown previously saved with `--out-file`
type FileSource struct {
	path   string
	parser *Parser
}

// NewFileSource creates a source that reads the breakdown at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, parser: NewParser()}
}

// Acquire reads and parses the saved breakdown
func (s *FileSource) Acquire(_ context.Context) (*models.CostReport, error) {
	return s.parser.ParseFile(s.path)
}
