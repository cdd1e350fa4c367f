package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

func addAgentFlags(cmd *cobra.Command, opts *sessionOptions) {
	cmd.Flags().StringSliceVar(&opts.Cards, "cards", nil, "Card names in hand slot order (defaults to card0..card3)")
	cmd.Flags().StringVar(&opts.ModelFile, "model", "model.json", "Model weights file, relative names resolve under --model-dir")
	cmd.Flags().StringVar(&opts.ModelDir, "model-dir", "models", "Directory for model weights")
	cmd.Flags().DurationVar(&opts.EpisodeTimeout, "episode-timeout", 10*time.Minute, "Upper bound on a single episode (0 for none)")
	cmd.Flags().StringVar(&opts.MonitorAddr, "monitor", "", "Serve the session status on this address (e.g. localhost:8080)")
	cmd.Flags().IntVar(&opts.PlotWindow, "plot-window", 10, "Moving average window of the reward plot")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "Random seed, 0 seeds from the clock")
}

// runSession wires up the collaborators and runs until done or interrupted
func runSession(opts sessionOptions) error {
	ctx, done := interruptContext()
	defer done()

	s, err := newSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	err = s.run(ctx)
	if errors.Is(err, context.Canceled) {
		s.log.Warn("interrupted")
		return nil
	}
	return err
}

func TrainCommand() *cobra.Command {
	opts := sessionOptions{Learn: true}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the agent on live matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts)
		},
	}
	addAgentFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Start from the saved model weights")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 32, "Replay minibatch size")
	cmd.Flags().IntVar(&opts.SyncEvery, "sync-every", 10, "Refresh the target network every N episodes")
	return cmd
}

func PlayCommand() *cobra.Command {
	opts := sessionOptions{Learn: false}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play matches with the saved model, without learning",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts)
		},
	}
	addAgentFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.Random, "random", false, "Play uniformly random actions as a baseline, no model is loaded")
	return cmd
}
