package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/royale-rl/commands"
)

// main entry point to the training and play commands
func main() {
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
