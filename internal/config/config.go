// Package config holds the settings that drive a report run.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"costreport/internal/errors"
)

const (
	// DefaultOutputFile is where the rendered report is saved
	DefaultOutputFile = "cost-report.txt"
	// DefaultFormat is the report format written to stdout and the output file
	DefaultFormat = "text"
	// DefaultPath is the directory the cost tool is pointed at
	DefaultPath = "."
	// DefaultInfracostBinary is the cost tool executable
	DefaultInfracostBinary = "infracost"
)

// Settings represents the configuration that can be loaded from a file
type Settings struct {
	Path            string `json:"path" yaml:"path" toml:"path"`
	OutputFile      string `json:"output_file" yaml:"output_file" toml:"output_file"`
	Format          string `json:"format" yaml:"format" toml:"format"`
	InfracostBinary string `json:"infracost_binary" yaml:"infracost_binary" toml:"infracost_binary"`
	BreakdownFile   string `json:"breakdown_file" yaml:"breakdown_file" toml:"breakdown_file"`
	EnvFile         string `json:"env_file" yaml:"env_file" toml:"env_file"`
	NoColor         bool   `json:"no_color" yaml:"no_color" toml:"no_color"`
	Verbose         bool   `json:"verbose" yaml:"verbose" toml:"verbose"`
}

// Default returns the settings used when nothing is configured
func Default() *Settings {
	return &Settings{
		Path:            DefaultPath,
		OutputFile:      DefaultOutputFile,
		Format:          DefaultFormat,
		InfracostBinary: DefaultInfracostBinary,
	}
}

// LoadFile loads a TOML, YAML or JSON settings file on top of the defaults
func LoadFile(filePath string) (*Settings, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, errors.ConfigErrorWithCause("error accessing settings file", err).
			WithContext("filePath", filePath)
	}

	if fileInfo.IsDir() {
		return nil, errors.ConfigErrorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.ConfigErrorWithCause("error reading settings file", err).
			WithContext("filePath", filePath)
	}

	var loaded Settings

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &loaded); err != nil {
			return nil, errors.ConfigErrorWithCause("error parsing TOML file", err).
				WithContext("filePath", filePath)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &loaded); err != nil {
			return nil, errors.ConfigErrorWithCause("error parsing YAML file", err).
				WithContext("filePath", filePath)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &loaded); err != nil {
			return nil, errors.ConfigErrorWithCause("error parsing JSON file", err).
				WithContext("filePath", filePath)
		}
	default:
		return nil, errors.ConfigErrorf("unsupported settings file format: %s", fileExtension).
			WithContext("filePath", filePath).
			WithSuggestion("Use a .toml, .yaml, .yml or .json file")
	}

	settings := Default()
	settings.Merge(&loaded)
	return settings, nil
}

// Merge copies every non-zero field of other onto s
func (s *Settings) Merge(other *Settings) {
	if other == nil {
		return
	}
	if other.Path != "" {
		s.Path = other.Path
	}
	if other.OutputFile != "" {
		s.OutputFile = other.OutputFile
	}
	if other.Format != "" {
		s.Format = strings.ToLower(other.Format)
	}
	if other.InfracostBinary != "" {
		s.InfracostBinary = other.InfracostBinary
	}
	if other.BreakdownFile != "" {
		s.BreakdownFile = other.BreakdownFile
	}
	if other.EnvFile != "" {
		s.EnvFile = other.EnvFile
	}
	s.NoColor = s.NoColor || other.NoColor
	s.Verbose = s.Verbose || other.Verbose
}

// Validate checks that the settings can drive a run
func (s *Settings) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"path", s.Path},
		{"output_file", s.OutputFile},
		{"format", s.Format},
		{"infracost_binary", s.InfracostBinary},
	}

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return errors.ValidationErrorf("%s cannot be empty", field.name).
				WithSuggestion("Remove the setting to use its default value")
		}
	}

	return nil
}

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file. An empty path yields
// no variables. The process environment is left untouched.
func LoadEnvFile(filePath string) (map[string]string, error) {
	if filePath == "" {
		return nil, nil
	}

	env, err := godotenv.Read(filePath)
	if err != nil {
		return nil, errors.ConfigErrorWithCause("error reading env file", err).
			WithContext("filePath", filePath).
			WithSuggestion("Use KEY=VALUE lines, e.g. INFRACOST_API_KEY=ico-...")
	}
	return env, nil
}
