package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zer0-/polymer-bricks/internal/config"
	"github.com/Zer0-/polymer-bricks/internal/errors"
)

func initCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default bricks.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.ConfigFileName)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.CodeConfigInvalid).
					WithPath(path).
					WithDetail("configuration already exists").
					WithSuggestion("Use --force to overwrite it")
			}

			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success("Created %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing bricks.json")

	return cmd
}
