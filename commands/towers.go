package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/zeu5/royale-rl/arena"
	"github.com/zeu5/royale-rl/config"
)

// printTowers writes the regions in registry order followed by the
// counter card reference table
func printTowers(w io.Writer, towers *arena.TowerRegions) {
	fmt.Fprintln(w, "Tower regions:")
	for _, name := range arena.TowerNames {
		r, _ := towers.Get(name)
		fmt.Fprintf(w, "  %-22s x=%d y=%d w=%d h=%d priority=%d\n", name, r.X, r.Y, r.W, r.H, arena.TowerPriority(name))
	}

	units := make([]string, 0, len(arena.CounterCards))
	for u := range arena.CounterCards {
		units = append(units, u)
	}
	sort.Strings(units)
	fmt.Fprintln(w, "Counter cards:")
	for _, u := range units {
		fmt.Fprintf(w, "  %-14s -> %s\n", u, arena.CounterCards[u])
	}
}

func TowersCommand() *cobra.Command {
	var regionsPath string
	cmd := &cobra.Command{
		Use:   "towers",
		Short: "Validate and print the tower regions file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if regionsPath == "" {
				regionsPath = os.Getenv("TOWER_REGIONS")
			}
			if regionsPath == "" {
				regionsPath = config.DefaultTowerRegions
			}
			towers, err := arena.LoadTowerRegions(regionsPath)
			if err != nil {
				return err
			}
			printTowers(cmd.OutOrStdout(), towers)
			return nil
		},
	}
	cmd.Flags().StringVar(&regionsPath, "regions", "", "Tower regions file (defaults to $TOWER_REGIONS or towers_regions.json)")
	return cmd
}
