package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zer0-/polymer-bricks/internal/build"
	"github.com/Zer0-/polymer-bricks/internal/publish"
)

func publishCmd(flags *globalFlags) *cobra.Command {
	var (
		bucket  string
		prefix  string
		profile string
		noBuild bool
	)

	cmd := &cobra.Command{
		Use:   "publish [source] [output]",
		Short: "Build and upload the output to S3",
		Long: `Build the component directory and upload every output file to an
S3-compatible bucket under the configured prefix.

Credentials come from publish.accessKeyId and publish.secretAccessKey when
set, otherwise from the default AWS chain: AWS_* variables (a .env file is
loaded), the shared config files (publish.profile or --profile) and the
instance role.

Examples:
  bricks publish --bucket=assets --prefix=components/v2
  bricks publish --no-build`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args)
			if err != nil {
				return err
			}
			if bucket != "" {
				cfg.Publish.Bucket = bucket
			}
			if cmd.Flags().Changed("prefix") {
				cfg.Publish.Prefix = prefix
			}
			if profile != "" {
				cfg.Publish.Profile = profile
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if !noBuild {
				builder, err := build.New(cfg, build.Options{Generator: "bricks " + version})
				if err != nil {
					return err
				}
				result, err := builder.Build(ctx)
				if err != nil {
					return err
				}
				for _, w := range result.Excluded {
					warn(w.Err)
				}
			}

			client, err := publish.NewClient(ctx, cfg.Publish)
			if err != nil {
				return err
			}
			publisher, err := publish.New(publish.Options{
				Bucket:  cfg.Publish.Bucket,
				Prefix:  cfg.Publish.Prefix,
				Workers: cfg.Workers,
				Client:  client,
			})
			if err != nil {
				return err
			}

			result, err := publisher.Publish(ctx, cfg.OutputPath())
			if err != nil {
				return err
			}
			success("Published %d objects (%s) to s3://%s/%s",
				len(result.Keys), formatBytes(result.Bytes), cfg.Publish.Bucket, cfg.Publish.Prefix)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Destination bucket (default from bricks.json)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Object key prefix (default from bricks.json)")
	cmd.Flags().StringVar(&profile, "profile", "", "Shared AWS config profile (default from bricks.json)")
	cmd.Flags().BoolVar(&noBuild, "no-build", false, "Upload the existing output without building")

	return cmd
}
