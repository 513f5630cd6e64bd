package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/askboxhq/askbox/internal/config"
)

var (
	configInitOut   string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configInitOut
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if path == "" {
			return fmt.Errorf("could not resolve a config path; pass --out")
		}

		if !configInitForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		scaffold := map[string]any{
			"server": map[string]any{
				"host": "localhost",
				"port": 8080,
			},
			"store": map[string]any{
				"path": config.DefaultStorePath(),
			},
			"counter": map[string]any{
				"backend": "memory",
				"redis": map[string]any{
					"addrs":      []string{"localhost:6379"},
					"key_prefix": "askbox",
				},
			},
			"admission": map[string]any{
				"fail_mode":          "fail-open",
				"duplicate_capacity": 100,
			},
			"summarize": map[string]any{
				"base_url":     "https://api.openai.com/v1",
				"api_key":      "",
				"model":        "gpt-4o-mini",
				"batch_size":   10,
				"max_interval": "15m",
			},
			"logging": map[string]any{
				"level":   "info",
				"profile": "STRUCTURED",
			},
			"metrics": map[string]any{
				"enabled": true,
				"port":    9090,
			},
		}

		body, err := yaml.Marshal(scaffold)
		if err != nil {
			return fmt.Errorf("encode config scaffold: %w", err)
		}

		header := "# askbox configuration.\n# Override any value with ASKBOX_* environment variables.\n"

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(path, append([]byte(header), body...), 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVar(&configInitOut, "out", "", "destination path (default is the XDG config path)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
}
