package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zer0-/polymer-bricks/internal/build"
	"github.com/Zer0-/polymer-bricks/internal/dev"
)

func devCmd(flags *globalFlags) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev [source] [output]",
		Short: "Start the development server",
		Long: `Build the component directory, serve the output and rebuild when a
source file changes. Pages that include /_bricks/reload.js are reloaded
after each rebuild, or show an error overlay when it fails.

Examples:
  bricks dev
  bricks dev --port=8080
  bricks dev --host=0.0.0.0`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}

			server, err := dev.NewServer(dev.ServerOptions{
				Config: cfg,
				OnBuildComplete: func(result *build.Result, err error) {
					if err != nil {
						return
					}
					success("Built %d components in %s", result.Components, result.Duration.Round(time.Millisecond))
				},
				OnReload: func(clients int) {
					success("Reloaded %d browsers", clients)
				},
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			fmt.Println()
			info("Serving %s at %s", cfg.Output, cfg.DevURL())
			info("Watching %s", cfg.Source)
			fmt.Println()

			return server.Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from bricks.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from bricks.json)")

	return cmd
}
