// Package cli defines the cobra command tree for the property listing API.
package cli

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"property-listing/internal/config"
	"property-listing/internal/logging"
)

var flagConfig string

// NewRootCmd creates the root cobra command with global flags. Running it
// without a subcommand starts the server.
func NewRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "api",
		Short:         "Property listing API",
		Long:          "An HTTP service to create, list and delete property listings with an optional image each.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the YAML config file (default $CONFIG_PATH or config.yaml)")

	root.AddCommand(
		serve,
		newCleanupCmd(),
	)

	return root
}

// configPath is the --config flag, else CONFIG_PATH, else config.yaml.
// It must run after .env is loaded.
func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// loadConfig reads .env, the config file and the environment, then sets
// up logging from the result.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		return nil, err
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	return cfg, nil
}
