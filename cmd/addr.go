package cmd

import (
	"github.com/loralayer2/ll2/protocol"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var addrCmd = &cobra.Command{
	Use:   "addr [hex]...",
	Short: "Parses node addresses and shows whether they are reserved",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Usage()
			return
		}
		data := pterm.TableData{{"Input", "Address", "Class"}}
		for _, arg := range args {
			addr, err := protocol.ParseAddress(arg)
			if err != nil {
				data = append(data, []string{arg, "-", err.Error()})
				continue
			}
			data = append(data, []string{arg, addr.String(), addr.Class()})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
	GroupID: "util",
}

func init() {
	rootCmd.AddCommand(addrCmd)
}
