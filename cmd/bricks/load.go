package main

import (
	"path/filepath"

	"github.com/Zer0-/polymer-bricks/internal/config"
	"github.com/Zer0-/polymer-bricks/internal/errors"
)

// loadConfig loads the project configuration and applies the positional
// source and output arguments. Without a bricks.json the defaults apply, but
// only when the source is given on the command line.
func loadConfig(flags *globalFlags, args []string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if errors.IsCode(err, errors.CodeConfigNotFound) && len(args) > 0 {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Source = absArg(args[0])
	}
	if len(args) > 1 {
		cfg.Output = absArg(args[1])
	}
	return cfg, nil
}

// absArg resolves a command line path against the working directory rather
// than the config file's directory.
func absArg(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
