package cmd

import (
	"os"
	"strconv"

	"github.com/loralayer2/ll2/state"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Checks a simulation config and prints the topology it describes",
	Run: func(cmd *cobra.Command, args []string) {
		path := cmd.Flag("config").Value.String()
		cfg, err := state.LoadSimConfig(path)
		if err != nil {
			pterm.Error.Printfln("%s is not valid: %v", path, err)
			os.Exit(1)
		}
		edges, err := cfg.Edges()
		if err != nil {
			panic(err)
		}

		nodes := pterm.TableData{{"Node", "Address", "Interval", "Duty"}}
		for _, n := range cfg.Nodes {
			interval := n.RoutingInterval().String()
			if n.RoutingInterval() == 0 {
				interval = "reactive"
			}
			nodes = append(nodes, []string{n.Name, n.Address.String(), interval, strconv.FormatFloat(n.DutyCycle, 'g', -1, 64)})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(nodes).Render()

		links := pterm.TableData{{"Link", "Loss"}}
		for _, e := range edges {
			links = append(links, []string{e.V1 + " <-> " + e.V2, strconv.FormatFloat(cfg.LinkLoss(e.V1, e.V2), 'g', -1, 64)})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(links).Render()
		pterm.Success.Printfln("%s is valid: %d nodes, %d links, %d messages", path, len(cfg.Nodes), len(edges), len(cfg.Messages))
	},
	GroupID: "ll2",
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("config", "c", DefaultSimConfigPath, "Path to the simulation config")
}
