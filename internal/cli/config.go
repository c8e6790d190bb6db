package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"envdoctor/internal/common"
	"envdoctor/internal/config"
)

const (
	CmdConfig  = "config"
	dotEnvFile = ".env"
)

var configSave bool

var configCmd = &cobra.Command{
	Use:   CmdConfig,
	Short: "Show the effective configuration",
	Long: `Print the configuration envdoctor would run with, after merging the
config file, .env, ENVDOCTOR_* variables and command-line flags.

  envdoctor config                 # print as YAML
  envdoctor config --save          # write it to the config file`,
	Args: cobra.NoArgs,
	RunE: runConfigCmd,
}

func init() {
	configCmd.Flags().BoolVar(&configSave, "save", false, "write the effective configuration to the config file")
	rootCmd.AddCommand(configCmd)
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if configSave {
		path := configFilePath()
		if err := config.Save(cfg, path); err != nil {
			return NewConfigError("Cannot save configuration", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func configFilePath() string {
	return common.FirstNonEmpty(configPath, config.DefaultPath())
}

// loadConfig layers defaults, the config file, .env, ENVDOCTOR_* variables
// and the flags set on cmd, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(dotEnvFile); err != nil {
		return nil, NewConfigError("Cannot read .env", err)
	}
	cfg, err := config.LoadOptional(configFilePath(), configPath != "")
	if err != nil {
		return nil, NewConfigError("Cannot load configuration", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, NewConfigError("Invalid ENVDOCTOR_* variable", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	configureLogging(cfg.LogLevel)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("manifest") {
		cfg.Manifest = manifestSource
	}
	if flags.Changed("fix") {
		cfg.Fix = checkFix
	}
	if flags.Changed("skip") {
		cfg.Skip = append(cfg.Skip, checkSkip...)
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = checkMetricsFile
	}
	if flags.Changed("parallelism") {
		if checkParallelism < 1 {
			return NewValidationError("--parallelism", checkParallelism, "a positive integer")
		}
		cfg.Parallelism = checkParallelism
	}
	if flags.Changed("apply-env") {
		cfg.ApplyEnvironment = checkApplyEnv
	}
	return nil
}
