// Package cli implements the chatgate command line.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/chatgate/internal/config"
	"github.com/xiaot623/gogo/chatgate/internal/logging"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "chatgate",
		Short:         "Scope-gated chat gateway for hosted assistants",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	load := func() (*config.Config, zerolog.Logger, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, zerolog.Nop(), err
		}
		return cfg, logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format)), nil
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newTokenCmd(load),
		newThreadCmd(load),
		newChatCmd(),
	)
	return rootCmd
}

type loader func() (*config.Config, zerolog.Logger, error)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
