package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/democrat/internal/config"
	"github.com/vango-dev/democrat/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath  string
	verbose     bool
	noColor     bool
	errorFormat string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and prints a failure in the --error-format
// style. It returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	flags := &globalFlags{}
	cmd := newRootCmd(flags, stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		printError(stderr, errors.FromError(err, "DEM027"), flags.errorFormat)
		return 1
	}
	return 0
}

func printError(w io.Writer, err *errors.Error, format string) {
	switch format {
	case "compact":
		fmt.Fprintln(w, err.FormatCompact())
	case "json":
		fmt.Fprintln(w, err.FormatJSON())
	default:
		errors.Fprint(w, err)
	}
}

func newRootCmd(flags *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "democrat",
		Short: "Inspect, convert and serve democrat stores",
		Long: `democrat is the command line companion of the democrat runtime.

It runs the built-in demo trees, records and replays their patches,
converts snapshots and patch files between JSON, YAML and MessagePack,
and serves a live store over HTTP and WebSocket for debugging.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.noColor || os.Getenv("NO_COLOR") != "" {
				errors.DisableColors()
			} else {
				errors.EnableColors()
			}
			switch flags.errorFormat {
			case "pretty", "compact", "json":
				return nil
			}
			format := flags.errorFormat
			flags.errorFormat = "pretty"
			return errors.New("DEM024").
				WithDetail("unknown --error-format " + format).
				WithSuggestion("Use one of: pretty, compact, json.")
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to democrat.yaml or democrat.json")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")
	rootCmd.PersistentFlags().StringVar(&flags.errorFormat, "error-format", "pretty", "Error output: pretty, compact or json")

	rootCmd.AddCommand(
		versionCmd(),
		inspectCmd(flags),
		replayCmd(flags),
		convertCmd(),
		serveCmd(flags),
		archiveCmd(flags),
	)
	return rootCmd
}

// loadConfig reads the --config file, or democrat.yaml/json from the working
// directory when present, or the defaults.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	return config.LoadOrDefault(".")
}

// logger builds a text logger on w at the configured level, or at debug
// with --verbose.
func (f *globalFlags) logger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, err := cfg.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
