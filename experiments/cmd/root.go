package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "reinforce",
		Short:        "Train REINFORCE policies on cart-pole",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			UpdateFlags()
			if err := flags.Validate(); err != nil {
				return err
			}
			if err := flags.Record(); err != nil {
				return err
			}
			level, _ := zerolog.ParseLevel(flags.LogLevel)
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().
				Timestamp().
				Str("run_id", flags.RunID).
				Logger()
			return nil
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		TrainCommand(),
	)

	return cmd
}
