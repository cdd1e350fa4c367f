package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeu5/royale-rl/ledger"
	"github.com/zeu5/royale-rl/types"
)

func ledgerPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if p := os.Getenv("LEDGER_PATH"); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no ledger: set --ledger or LEDGER_PATH")
}

// PlotCommand compares the episode rewards of recorded sessions
func PlotCommand() *cobra.Command {
	var ledgerFlag string
	var window int
	var output string
	cmd := &cobra.Command{
		Use:   "plot SESSION [SESSION...]",
		Short: "Plot the episode rewards of recorded sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ledgerPath(ledgerFlag)
			if err != nil {
				return err
			}
			l, err := ledger.Open(p)
			if err != nil {
				return err
			}
			defer l.Close()

			series := make([][]float64, 0, len(args))
			for _, session := range args {
				entries, err := l.Episodes(context.Background(), session)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					return fmt.Errorf("no episodes recorded for session %s", session)
				}
				rewards := make([]float64, len(entries))
				for i, e := range entries {
					rewards[i] = e.TotalReward
				}
				series = append(series, rewards)
			}
			if output == "" {
				output = "rewards_" + strings.Join(shortIDs(args), "_") + ".png"
			}
			if err := types.PlotRewards(saveFile, output, shortIDs(args), series, window); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved plot to %s/%s\n", saveFile, output)
			return nil
		},
	}
	cmd.Flags().StringVar(&ledgerFlag, "ledger", "", "Ledger database (defaults to $LEDGER_PATH)")
	cmd.Flags().IntVar(&window, "window", 10, "Moving average window")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Plot file name")
	return cmd
}

// SessionsCommand lists the sessions recorded in the ledger
func SessionsCommand() *cobra.Command {
	var ledgerFlag string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ledgerPath(ledgerFlag)
			if err != nil {
				return err
			}
			l, err := ledger.Open(p)
			if err != nil {
				return err
			}
			defer l.Close()

			sessions, err := l.Sessions(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range sessions {
				fmt.Fprintf(out, "%s  episodes=%d won=%d lost=%d mean_reward=%.2f last=%s\n",
					s.ID, s.Episodes, s.Victories, s.Defeats, s.MeanReward, s.LastUpdated.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ledgerFlag, "ledger", "", "Ledger database (defaults to $LEDGER_PATH)")
	return cmd
}

func shortIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if len(id) > 8 {
			id = id[:8]
		}
		out[i] = id
	}
	return out
}
