/*
PURPOSE:
  `config init` and `config show` commands.

IMPLEMENTATION RULES:
  - init never overwrites without --force.
  - show redacts the API key and the Redis password.

RELATED FILES:
  - internal/config/config.go
*/

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/output"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Write the default configuration to ./load_estimator.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultFiles[0]
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		data, err := config.DefaultConfig().Marshal()
		if err != nil {
			return err
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		output.Logger.Info("Wrote configuration", "path", path)
		fmt.Fprintln(cmd.OutOrStdout(), "API keys are read from the environment (LOAD_ESTIMATOR_API_KEY or the provider's own variable), never from this file.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		red := cfg.Redacted()
		data, err := red.Marshal()
		if err != nil {
			return err
		}

		key := "unset"
		if red.APIKey != "" {
			key = red.APIKey
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# api key: %s\n", key)
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
