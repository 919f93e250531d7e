package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zer0-/polymer-bricks/internal/build"
	"github.com/Zer0-/polymer-bricks/internal/config"
	"github.com/Zer0-/polymer-bricks/internal/emit"
	"github.com/Zer0-/polymer-bricks/internal/scan"
)

func graphCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph [source]",
		Short: "Print the manifest without writing anything",
		Long: `Resolve the component directory and print its manifest to stdout.
Nothing is written to the output directory.

Examples:
  bricks graph
  bricks graph components --format=json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args)
			if err != nil {
				return err
			}
			if format == "" {
				format = config.FormatText
			}

			builder, err := build.New(cfg, build.Options{})
			if err != nil {
				return err
			}
			sourceDir, err := scan.Root(cfg.SourcePath())
			if err != nil {
				return err
			}

			depmap, warnings, err := builder.Resolver().BuildDependencyMap(context.Background(), sourceDir)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				warn(w.Err)
			}

			m, err := emit.New(sourceDir).Manifest(depmap, cfg.AssetRoot)
			if err != nil {
				return err
			}
			m.Generator = "bricks " + version
			return m.Encode(os.Stdout, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json or yaml (default text)")

	return cmd
}
