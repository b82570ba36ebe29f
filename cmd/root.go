package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"costreport/internal/config"
	"costreport/internal/console"
	"costreport/internal/infracost"
	"costreport/internal/interfaces"
	"costreport/internal/models"
	"costreport/internal/output"
	"costreport/internal/version"
)

// totalTolerance is the largest gap between the reported total and the sum
// of resource costs that is not worth a warning
const totalTolerance = 0.01

var (
	// Global flags
	configFile    string
	path          string
	outputFile    string
	outputFormat  string
	infracostBin  string
	breakdownFile string
	envFile       string
	verbose       bool
	noColor       bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "costreport",
		Short: "Infracost cost estimation report generator",
		Long: `costreport runs "infracost breakdown" against a Terraform directory, groups the
priced resources of every project by service, and prints a cost estimation
report with monthly, hourly and annual totals plus cost optimization
recommendations. The report is also saved to a file.`,
		Example: `  # Report on the current directory and save it to cost-report.txt
  costreport

  # Report on another directory
  costreport --path infra/ecs

  # Render markdown into a custom file
  costreport --format markdown --output-file cost-report.md

  # Render a breakdown that was already saved by infracost
  costreport --breakdown-file infracost.json

  # Load settings from a file, flags still win
  costreport --config costreport.toml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReport,
	}

	// Version command
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version and build information for costreport.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.GetFullVersionString())
		},
	}

	// Formats command
	formatsCmd = &cobra.Command{
		Use:   "formats",
		Short: "List supported report formats",
		Run: func(cmd *cobra.Command, args []string) {
			for _, format := range output.NewFormatterFactory().GetSupportedFormats() {
				fmt.Fprintln(cmd.OutOrStdout(), format)
			}
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&path, "path", "p", config.DefaultPath, "Terraform directory passed to infracost")
	rootCmd.Flags().StringVarP(&outputFile, "output-file", "o", config.DefaultOutputFile, "File the report is saved to")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", config.DefaultFormat, "Report format (text, markdown, json, yaml)")
	rootCmd.Flags().StringVar(&infracostBin, "infracost-bin", config.DefaultInfracostBinary, "Name or path of the infracost executable")
	rootCmd.Flags().StringVar(&breakdownFile, "breakdown-file", "", "Read an infracost JSON breakdown from this file instead of running infracost")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Dotenv file whose variables are passed to infracost (e.g. INFRACOST_API_KEY)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Settings file (.toml, .yaml, .yml or .json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostic information to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(formatsCmd)

	rootCmd.SetHelpTemplate(getHelpTemplate())
}

// ExecuteContext runs the root command with ctx, which is handed on to infracost
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// runReport handles the root command
func runReport(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return generateReport(ctx, settings, cmd.OutOrStdout(), cmd.ErrOrStderr(), time.Now)
}

// resolveSettings layers the settings file, then explicitly set flags, over the defaults
func resolveSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings := config.Default()

	if configFile != "" {
		loaded, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("path") {
		settings.Path = path
	}
	if flags.Changed("output-file") {
		settings.OutputFile = outputFile
	}
	if flags.Changed("format") {
		settings.Format = strings.ToLower(outputFormat)
	}
	if flags.Changed("infracost-bin") {
		settings.InfracostBinary = infracostBin
	}
	if flags.Changed("breakdown-file") {
		settings.BreakdownFile = breakdownFile
	}
	if flags.Changed("env-file") {
		settings.EnvFile = envFile
	}
	if flags.Changed("verbose") {
		settings.Verbose = verbose
	}
	if flags.Changed("no-color") {
		settings.NoColor = noColor
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// generateReport runs acquire, render, print and save in order. Nothing is
// written to the output file unless every earlier step succeeds.
func generateReport(ctx context.Context, settings *config.Settings, stdout, stderr io.Writer, now func() time.Time) error {
	logger := console.NewLogger(stderr, settings.Verbose)
	out := console.New(stdout, stderr, settings.NoColor)

	factory := output.NewFormatterFactory()
	formatter, err := factory.GetFormatter(settings.Format)
	if err != nil {
		return err
	}

	source, err := newSource(settings, logger)
	if err != nil {
		return err
	}

	out.Progress("Generating cost estimation report...")

	report, err := source.Acquire(ctx)
	if err != nil {
		return err
	}

	checkTotals(report, logger)

	summary := models.NewSummary(report, now())
	rendered, err := formatter.Format(summary)
	if err != nil {
		return err
	}

	out.Report(rendered)

	if err := output.SaveReport(settings.OutputFile, rendered); err != nil {
		return err
	}

	logger.Debug("report saved", "file", settings.OutputFile, "format", formatter.FormatType())
	out.Success("Report saved to: %s", settings.OutputFile)

	return nil
}

// newSource picks a saved breakdown file when one is configured, infracost otherwise
func newSource(settings *config.Settings, logger *slog.Logger) (interfaces.CostSource, error) {
	if settings.BreakdownFile != "" {
		logger.Debug("reading saved breakdown", "file", settings.BreakdownFile)
		return infracost.NewFileSource(settings.BreakdownFile), nil
	}

	env, err := config.LoadEnvFile(settings.EnvFile)
	if err != nil {
		return nil, err
	}
	if len(env) > 0 {
		logger.Debug("loaded env file", "file", settings.EnvFile, "variables", len(env))
	}

	return infracost.NewClient(&infracost.ClientConfig{
		Binary: settings.InfracostBinary,
		Path:   settings.Path,
		Logger: logger,
		Env:    env,
	}), nil
}

// checkTotals warns when resource costs do not add up to the reported total.
// The reported total is still the one shown.
func checkTotals(report *models.CostReport, logger *slog.Logger) {
	reported := report.TotalMonthlyCost.Float()
	summed := report.ResourceTotal()

	if math.Abs(reported-summed) > totalTolerance {
		logger.Warn("resource costs do not add up to the reported monthly total",
			"reported", reported,
			"resources", summed)
	}
}

// getHelpTemplate returns a custom help template
func getHelpTemplate() string {
	return `{{.Long}}

Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}
