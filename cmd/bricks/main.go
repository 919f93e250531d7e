package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Zer0-/polymer-bricks/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type globalFlags struct {
	config  string
	verbose bool
	noColor bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errReported {
			errors.PrintError(err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "bricks",
		Short: "Dependency-ordered builds for HTML web components",
		Long: `bricks resolves the HTML imports, stylesheets and scripts of a
web component library and writes a deployable copy of it, together with a
manifest declaring every asset in dependency order.

  • Post-order dependency resolution with cycle and depth checks
  • Hoisted references removed, template references rewritten
  • JSON, YAML or text manifests
  • Live-reloading development server
  • Publishing to S3-compatible storage`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// AWS credentials for publish usually live in .env.
			_ = godotenv.Load()
			setupLogging(flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to bricks.json (default: search upwards)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		initCmd(flags),
		buildCmd(flags),
		graphCmd(flags),
		devCmd(flags),
		publishCmd(flags),
		explainCmd(),
		versionCmd(),
	)

	return rootCmd
}

// setupLogging installs the process-wide slog handler.
func setupLogging(flags *globalFlags) {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flags.noColor || os.Getenv("NO_COLOR") != "" {
		errors.DisableColors()
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning for a coded error.
func warn(err error) {
	errors.PrintWarning(err)
}
