package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"costreport/internal/errors"
	"costreport/internal/interfaces"
	"costreport/internal/models"
)

const (
	// ReportTitle heads every rendered report
	ReportTitle = "AWS ECS Infrastructure Cost Estimation Report"
	// TimestampLayout formats the generation time in the banner
	TimestampLayout = "2006-01-02 15:04:05"
	// DetailHint closes the text report
	DetailHint = "For detailed breakdown, run: infracost breakdown --path ."

	lineWidth = 80
)

var recommendations = []string{
	"1. Use Fargate Spot for non-critical workloads (up to 70% savings)",
	"2. Enable ECS Cluster Auto Scaling to match actual demand",
	"3. Use Reserved Instances or Savings Plans for predictable workloads",
	"4. Implement lifecycle policies for CloudWatch Logs retention",
	"5. Use S3 Intelligent-Tiering for terraform state storage",
	"6. Consider single NAT Gateway for dev environment",
	"7. Use CloudWatch Logs Insights to identify and remove verbose logging",
	"8. Implement tagging strategy for cost allocation",
	"9. Set up AWS Budgets for cost monitoring and alerts",
	"10. Regular review unused resources and rightsize instances",
}

// Recommendations returns the fixed cost optimization tips. They do not
// depend on the report contents.
func Recommendations() []string {
	out := make([]string, len(recommendations))
	copy(out, recommendations)
	return out
}

var (
	costPrinter = message.NewPrinter(language.English)
	upperCaser  = cases.Upper(language.Und)
)

// FormatCost renders a dollar amount with thousands separators and two decimals
func FormatCost(cost float64) string {
	return costPrinter.Sprintf("$%.2f", cost)
}

// TextFormatter renders the plain text report printed to stdout and saved to disk
type TextFormatter struct{}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() interfaces.OutputFormatter {
	return &TextFormatter{}
}

// FormatType returns the format type
func (f *TextFormatter) FormatType() string {
	return "text"
}

// Format renders the report as newline-joined lines
func (f *TextFormatter) Format(summary *models.Summary) (string, error) {
	return strings.Join(f.Lines(summary), "\n"), nil
}

// Lines renders the report line by line
func (f *TextFormatter) Lines(summary *models.Summary) []string {
	heavy := strings.Repeat("=", lineWidth)
	light := strings.Repeat("-", lineWidth)

	lines := []string{
		heavy,
		ReportTitle,
		fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format(TimestampLayout)),
		heavy,
		"",
		"💰 COST SUMMARY",
		light,
		fmt.Sprintf("  Total Monthly Cost:  %s", FormatCost(summary.MonthlyCost)),
		fmt.Sprintf("  Total Hourly Cost:   %s", FormatCost(summary.HourlyCost)),
		fmt.Sprintf("  Total Annual Cost:   %s", FormatCost(summary.AnnualCost)),
		"",
	}

	for _, project := range summary.Projects {
		lines = append(lines,
			fmt.Sprintf("📊 PROJECT: %s", project.Name),
			light,
		)

		for _, group := range project.Services {
			lines = append(lines,
				"",
				fmt.Sprintf("  🔹 %s", upperCaser.String(group.Service)),
				fmt.Sprintf("     Total: %s/month", FormatCost(group.Total)),
			)
			for _, resource := range group.Resources {
				lines = append(lines, fmt.Sprintf("     - %s: %s/month",
					resource.DisplayName(), FormatCost(resource.MonthlyCost.Float())))
			}
		}

		lines = append(lines, "")
	}

	lines = append(lines,
		"💡 COST OPTIMIZATION RECOMMENDATIONS",
		light,
	)
	for _, rec := range recommendations {
		lines = append(lines, "  "+rec)
	}

	lines = append(lines,
		"",
		heavy,
		DetailHint,
		heavy,
	)

	return lines
}

// MarkdownFormatter renders the report as GitHub-flavored markdown
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter() interfaces.OutputFormatter {
	return &MarkdownFormatter{}
}

// FormatType returns the format type
func (f *MarkdownFormatter) FormatType() string {
	return "markdown"
}

// Format renders the report with one table per service group
func (f *MarkdownFormatter) Format(summary *models.Summary) (string, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1(ReportTitle)
	md.PlainText("")
	md.PlainTextf("Generated: %s", summary.GeneratedAt.Format(TimestampLayout))
	md.PlainText("")

	md.H2("💰 Cost Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Period", "Cost"},
		Rows: [][]string{
			{"Monthly", FormatCost(summary.MonthlyCost)},
			{"Hourly", FormatCost(summary.HourlyCost)},
			{"Annual", FormatCost(summary.AnnualCost)},
		},
	})
	md.PlainText("")

	for _, project := range summary.Projects {
		md.H2("📊 Project: " + project.Name)
		md.PlainText("")

		if len(project.Services) == 0 {
			md.PlainText("No priced resources.")
			md.PlainText("")
			continue
		}

		for _, group := range project.Services {
			md.H3("🔹 " + upperCaser.String(group.Service))
			md.PlainText("")

			rows := make([][]string, 0, len(group.Resources)+1)
			for _, resource := range group.Resources {
				rows = append(rows, []string{
					"`" + resource.DisplayName() + "`",
					FormatCost(resource.MonthlyCost.Float()),
				})
			}
			rows = append(rows, []string{"**Total**", "**" + FormatCost(group.Total) + "**"})

			md.Table(markdown.TableSet{
				Header: []string{"Resource", "Monthly Cost"},
				Rows:   rows,
			})
			md.PlainText("")
		}
	}

	md.H2("💡 Cost Optimization Recommendations")
	md.PlainText("")
	md.BulletList(recommendations...)
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("For detailed breakdown, run: `infracost breakdown --path .`")

	if err := md.Build(); err != nil {
		return "", fmt.Errorf("failed to build markdown: %w", err)
	}
	return buf.String(), nil
}

// document is the machine-readable shape shared by the JSON and YAML formatters
type document struct {
	models.Summary  `yaml:",inline"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
}

func newDocument(summary *models.Summary) document {
	return document{
		Summary:         *summary,
		Recommendations: Recommendations(),
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() interfaces.OutputFormatter {
	return &JSONFormatter{}
}

// FormatType returns the format type
func (f *JSONFormatter) FormatType() string {
	return "json"
}

// Format formats the grouped summary as JSON
func (f *JSONFormatter) Format(summary *models.Summary) (string, error) {
	data, err := json.MarshalIndent(newDocument(summary), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter() interfaces.OutputFormatter {
	return &YAMLFormatter{}
}

// FormatType returns the format type
func (f *YAMLFormatter) FormatType() string {
	return "yaml"
}

// Format formats the grouped summary as YAML
func (f *YAMLFormatter) Format(summary *models.Summary) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(newDocument(summary)); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to flush YAML: %w", err)
	}
	return buf.String(), nil
}

// FormatterFactory creates formatters based on type
type FormatterFactory struct {
	formatters map[string]interfaces.OutputFormatter
}

// NewFormatterFactory creates a new formatter factory
func NewFormatterFactory() *FormatterFactory {
	factory := &FormatterFactory{
		formatters: make(map[string]interfaces.OutputFormatter),
	}

	factory.RegisterFormatter(NewTextFormatter())
	factory.RegisterFormatter(NewMarkdownFormatter())
	factory.RegisterFormatter(NewJSONFormatter())
	factory.RegisterFormatter(NewYAMLFormatter())

	return factory
}

// RegisterFormatter registers a new formatter
func (f *FormatterFactory) RegisterFormatter(formatter interfaces.OutputFormatter) {
	f.formatters[formatter.FormatType()] = formatter
}

// GetFormatter returns a formatter by type
func (f *FormatterFactory) GetFormatter(formatType string) (interfaces.OutputFormatter, error) {
	formatter, exists := f.formatters[formatType]
	if !exists {
		return nil, errors.ValidationErrorf("unsupported format type '%s'", formatType).
			WithContext("validFormats", strings.Join(f.GetSupportedFormats(), ", ")).
			WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(f.GetSupportedFormats(), ", ")))
	}
	return formatter, nil
}

// GetSupportedFormats returns a list of supported format types
func (f *FormatterFactory) GetSupportedFormats() []string {
	formats := make([]string, 0, len(f.formatters))
	for formatType := range f.formatters {
		formats = append(formats, formatType)
	}
	sort.Strings(formats)
	return formats
}

// FormatResult formats a summary using the specified formatter
func (f *FormatterFactory) FormatResult(summary *models.Summary, formatType string) (string, error) {
	formatter, err := f.GetFormatter(formatType)
	if err != nil {
		return "", err
	}
	return formatter.Format(summary)
}

// WriteFormattedResult writes formatted result to a writer
func (f *FormatterFactory) WriteFormattedResult(writer io.Writer, summary *models.Summary, formatType string) error {
	formatted, err := f.FormatResult(summary, formatType)
	if err != nil {
		return err
	}

	_, err = writer.Write([]byte(formatted))
	return err
}

// SaveReport writes the rendered report to filename, replacing any existing file.
// The write is not atomic; a failure midway can leave a partial file.
func SaveReport(filename, report string) error {
	if err := os.WriteFile(filename, []byte(report), 0644); err != nil {
		return errors.FileErrorWithCause("failed to save report", err).
			WithContext("filename", filename).
			WithSuggestion("Check that the output directory exists and is writable")
	}
	return nil
}
