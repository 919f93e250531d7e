package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zer0-/polymer-bricks/internal/build"
	"github.com/Zer0-/polymer-bricks/internal/errors"
)

func buildCmd(flags *globalFlags) *cobra.Command {
	var (
		format      string
		clean       bool
		workers     int
		metricsFile string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "build [source] [output]",
		Short: "Build the component directory",
		Long: `Resolve every component under the source directory, copy them
into <output>/components and write the manifest.

Roots whose dependencies are missing, cyclic or nested too deeply are
excluded with a warning; the rest of the library still builds.

Examples:
  bricks build
  bricks build components dist
  bricks build --format=yaml --metrics-file=bricks.prom
  bricks build --json`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fail := func(err error) error {
				if jsonOut {
					return writeBuildReport(cmd.OutOrStdout(), nil, err)
				}
				return err
			}

			cfg, err := loadConfig(flags, args)
			if err != nil {
				return fail(err)
			}
			if format != "" {
				cfg.Manifest.Format = format
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			opts := build.Options{
				Clean:     clean,
				Generator: "bricks " + version,
				OnProgress: func(step string) {
					info(step)
				},
			}
			if jsonOut {
				opts.OnProgress = nil
			}

			builder, err := build.New(cfg, opts)
			if err != nil {
				return fail(err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			result, err := builder.Build(ctx)
			if err == nil && metricsFile != "" {
				err = builder.Metrics().WriteTextfile(metricsFile)
			}
			if jsonOut {
				return writeBuildReport(cmd.OutOrStdout(), result, err)
			}
			if err != nil {
				return err
			}

			for _, w := range result.Excluded {
				warn(w.Err)
			}

			fmt.Println()
			success("Built %d components in %s", result.Components, result.Duration.Round(time.Millisecond))
			fmt.Println()
			fmt.Println("  Output:")
			fmt.Printf("    %s/\n", cfg.Output)
			fmt.Printf("    ├── components/      (%d written, %d unchanged)\n", result.Written, result.Unchanged)
			fmt.Printf("    └── %s  (%s)\n", filepath.Base(result.ManifestPath), formatBytes(fileSize(result.ManifestPath)))
			if len(result.Excluded) > 0 {
				fmt.Printf("\n  %d root(s) excluded\n", len(result.Excluded))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Manifest format: json, yaml or text (default from bricks.json)")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove the output directory before building")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Concurrent file writes (default from bricks.json)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write build metrics in Prometheus textfile format")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print a JSON build report instead of text")

	return cmd
}

// buildReport is the --json output of build. Excluded roots and the build
// error use the coded error JSON form.
type buildReport struct {
	OK         bool              `json:"ok"`
	Components int               `json:"components"`
	Written    int               `json:"written"`
	Unchanged  int               `json:"unchanged"`
	Manifest   string            `json:"manifest,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Excluded   []json.RawMessage `json:"excluded"`
	Error      json.RawMessage   `json:"error,omitempty"`
}

// errReported marks a failure whose details were already written to stdout.
var errReported = fmt.Errorf("build failed")

func writeBuildReport(w io.Writer, result *build.Result, buildErr error) error {
	report := buildReport{OK: buildErr == nil, Excluded: []json.RawMessage{}}
	if result != nil {
		report.Components = result.Components
		report.Written = result.Written
		report.Unchanged = result.Unchanged
		report.Manifest = result.ManifestPath
		report.DurationMS = result.Duration.Milliseconds()
		for _, x := range result.Excluded {
			be := errors.FromError(x.Err, errors.CodeMissingDependency)
			report.Excluded = append(report.Excluded, json.RawMessage(be.FormatJSON()))
		}
	}
	if buildErr != nil {
		be := errors.FromError(buildErr, errors.CodeBuildFailed)
		report.Error = json.RawMessage(be.FormatJSON())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if buildErr != nil {
		return errReported
	}
	return nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
