package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/appsync/internal/bootstrap"
	"github.com/GriffinCanCode/appsync/internal/infrastructure/config"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile string
	baseURL    string
	logLevel   string
	strict     bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "appsync",
		Short: "Synchronize apps with a remote /app endpoint",
		Long: `appsync reads and writes app entities on a remote endpoint.

Configuration is layered: built-in defaults, then the --config file (yaml or
toml), then APPSYNC_* environment variables, then command-line flags.

Examples:
  # List every app the endpoint reports
  appsync list

  # Fail instead of printing nothing when the response has no apps field
  appsync list --strict

  # Create an app and print its id
  appsync create "Calendar"

  # Run a local endpoint to try things against
  appsync dev-server`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file (.yaml, .yml or .toml)")
	pf.StringVar(&flags.baseURL, "base-url", "", "base URL of the remote API (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.strict, "strict", false, "treat a response without an apps field as an error")

	root.AddCommand(
		newListCmd(flags),
		newShowCmd(flags),
		newCreateCmd(flags),
		newDeleteCmd(flags),
		newDevServerCmd(flags),
	)
	return root
}

// loadConfig applies defaults < file < environment < flags
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadFile(flags.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("base-url") {
		cfg.Remote.BaseURL = flags.baseURL
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if cmd.Flags().Changed("strict") {
		cfg.Registry.StrictUnwrap = flags.strict
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openContext builds the application context for a command
func openContext(cmd *cobra.Command, flags *globalFlags) (*bootstrap.Context, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}
