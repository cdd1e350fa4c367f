package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	episodes int
	horizon  int
	saveFile string
	envFile  string
	logLevel string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "royale-rl",
		Short:        "Train and run a DQN agent on a live arena match",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 100, "Number of episodes to run")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 500, "Maximum number of executed steps per episode")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File with the collaborator settings")
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(PlayCommand())
	rootCommand.AddCommand(TowersCommand())
	rootCommand.AddCommand(PlotCommand())
	rootCommand.AddCommand(SessionsCommand())
	return rootCommand
}
