package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/askboxhq/askbox/internal/config"
	"github.com/askboxhq/askbox/internal/counter"
	"github.com/askboxhq/askbox/internal/observability"
	"github.com/askboxhq/askbox/internal/output"
	"github.com/askboxhq/askbox/internal/usage"
)

var (
	usageDay          string
	usageOutputFormat string
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show billed API usage for one day",
	Long: `Show billed completion API usage (tokens and request counts) for one
calendar day, read from the shared counter store. Defaults to today (UTC).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(usageOutputFormat)
		if err != nil {
			return err
		}

		at := time.Now().UTC()
		if usageDay != "" {
			at, err = time.Parse("2006-01-02", usageDay)
			if err != nil {
				return fmt.Errorf("invalid --day value %q (want YYYY-MM-DD): %w", usageDay, err)
			}
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		if cfg.Counter.Backend != "redis" {
			return fmt.Errorf("usage reporting needs the redis counter backend (configured: %s)", cfg.Counter.Backend)
		}

		counterStore, err := counter.NewRedisStore(cmd.Context(), counter.RedisConfig{
			Addrs:       cfg.Counter.Redis.Addrs,
			Password:    cfg.Counter.Redis.Password,
			DB:          cfg.Counter.Redis.DB,
			KeyPrefix:   cfg.Counter.Redis.KeyPrefix,
			PoolSize:    cfg.Counter.Redis.PoolSize,
			DialTimeout: cfg.Counter.Redis.DialTimeout,
		})
		if err != nil {
			return err
		}
		defer counterStore.Close() // nolint:errcheck // best-effort cleanup

		accountant := usage.NewAccountant(counterStore, observability.CLILogger)
		report, err := accountant.Report(cmd.Context(), at)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatUsage(report)
		if err != nil {
			return err
		}

		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringVar(&usageDay, "day", "", "day to report in YYYY-MM-DD (default today, UTC)")
	usageCmd.Flags().StringVar(&usageOutputFormat, "output-format", string(output.FormatTable), "Output format: table|json")
}
