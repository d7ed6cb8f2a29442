// Package cli implements the nodulectl command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/NoduleAdvisor/internal/application/followup"
	"github.com/turtacn/NoduleAdvisor/internal/config"
	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/pkg/client"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"

	// ExitClassificationFailure is returned when the sentence itself could
	// not be read, so scripts can tell it apart from operational errors.
	ExitClassificationFailure = 2
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	ServerAddr   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Classifier   Classifier
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
}

// NewRootCommand creates the root command with its global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nodulectl",
		Short: "Follow-up recommendations for pulmonary nodule findings",
		Long: "nodulectl reads one radiology report sentence describing a pulmonary nodule,\n" +
			"extracts its descriptors and measurements, assigns a follow-up category and\n" +
			"prints the matching recommendation.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./nodulectl.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "classify through a remote API server instead of locally")

	cmd.AddCommand(
		NewClassifyCmd(),
		NewCategoriesCmd(),
		NewRecommendCmd(),
		NewMigrateCmd(),
	)
	return cmd
}

// persistentPreRun initializes config, logger and classifier, then stores
// the CLIContext on the command context.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch opts.OutputFormat {
	case OutputText, OutputJSON, OutputTable:
	default:
		return errors.InvalidParam(fmt.Sprintf("invalid output format %q (must be text, json or table)", opts.OutputFormat))
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	classifier, err := initClassifier(cfg, opts, logger)
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Classifier:   classifier,
		OutputFormat: opts.OutputFormat,
		Verbose:      opts.Verbose,
		NoColor:      opts.NoColor || os.Getenv("NO_COLOR") != "",
		Timeout:      opts.Timeout,
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	cmd.SetContext(context.WithValue(parent, cliContextKey{}, cliCtx))
	return nil
}

// configSearchPaths lists the files tried when --config is not given.
func configSearchPaths() []string {
	paths := []string{"./nodulectl.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".nodule", "config.yaml"))
	}
	return append(paths, "/etc/nodule/config.yaml")
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	return config.LoadOrDefault(opts.ConfigPath, configSearchPaths()...)
}

// initLogger writes console logs to stderr so stdout stays parseable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// initClassifier picks the remote API when --server is set and the local
// pipeline otherwise.
func initClassifier(cfg *config.Config, opts *RootOptions, logger logging.Logger) (Classifier, error) {
	if opts.ServerAddr != "" {
		c, err := client.NewClient(opts.ServerAddr,
			client.WithTimeout(opts.Timeout),
			client.WithUserAgent("nodulectl/"+Version))
		if err != nil {
			return nil, err
		}
		return remoteClassifier{api: c.Nodules()}, nil
	}
	svc := followup.NewService(cfg.Classifier,
		followup.WithLogger(logger),
		followup.WithSource(domain.SourceCLI))
	return localClassifier{svc: svc}, nil
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// withTimeout derives the operation context from --timeout.
func (c *CLIContext) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCommand()
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
	noColor = noColor || os.Getenv("NO_COLOR") != ""
	PrintError(rootCmd, err, noColor)
	return ExitCode(err)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.IsClassificationFailure(err) {
		return ExitClassificationFailure
	}
	return 1
}

// tableProvider is implemented by values with a tabular rendering.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format selected by --output.  text uses
// the value's String method when it has one.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := OutputJSON
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}

	switch format {
	case OutputJSON:
		return printJSON(cmd, data)
	case OutputTable:
		if tp, ok := data.(tableProvider); ok {
			fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
			return nil
		}
		return printText(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprint(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// PrintError writes the error message to stderr.  Typed failures print
// only their message, not the code and cause chain.
func PrintError(cmd *cobra.Command, err error, noColor bool) {
	if err == nil {
		return
	}
	msg := err.Error()
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		msg = fmt.Sprintf("%s (%s)", errors.GetMessage(err), code)
	}
	prefix := color.New(color.FgRed)
	if noColor {
		prefix.DisableColor()
	} else {
		prefix.EnableColor()
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", prefix.Sprint("Error:"), msg)
}

// FormatTable renders headers and rows as a bordered table.  Short rows are
// padded with empty cells.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		table.Append(cells)
	}
	table.Render()
	return buf.String()
}

//Personal.AI order the ending
