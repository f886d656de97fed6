package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ll2",
	Short: "LoRaLayer2 link layer tools",
	Long: `ll2 is a link and network layer for LoRa nodes.
It learns neighbors and multi-hop routes from the traffic it hears, and forwards datagrams across the mesh within the radio duty cycle.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "ll2",
		Title: "Network Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "util",
		Title: "Utilities",
	})
}
