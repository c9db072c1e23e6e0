package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/yieldengine/pkg/log"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yieldengine",
		Short: "yieldengine - rank regression model configurations by cross-validation",
		Long: `yieldengine evaluates every hyperparameter configuration of a model zoo
with k-fold cross-validation and ranks them by a score that rewards a high
mean and penalises variance across folds.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	logLevel := cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(*logLevel)
		if err != nil {
			return err
		}
		log.SetOutput(cmd.ErrOrStderr(), level)
		return nil
	}

	cmd.AddCommand(newRankCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
