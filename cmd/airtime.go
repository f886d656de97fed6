package cmd

import (
	"github.com/loralayer2/ll2/core"
	"github.com/loralayer2/ll2/protocol"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var airtimeCmd = &cobra.Command{
	Use:   "airtime",
	Short: "Computes the time on air of a frame and the silence the duty cycle requires after it",
	Run: func(cmd *cobra.Command, args []string) {
		sf, _ := cmd.Flags().GetUint8("sf")
		bw, _ := cmd.Flags().GetFloat64("bw")
		cr, _ := cmd.Flags().GetUint8("cr")
		length, _ := cmd.Flags().GetInt("len")
		duty, _ := cmd.Flags().GetFloat64("duty")
		implicit, _ := cmd.Flags().GetBool("implicit")
		ldro, _ := cmd.Flags().GetBool("ldro")

		if length < 0 || length > protocol.PacketLength {
			pterm.Error.Printfln("frame length must be between 0 and %d", protocol.PacketLength)
			return
		}
		if duty <= 0 || duty > 1 {
			pterm.Error.Println("duty cycle must be in (0, 1]")
			return
		}

		airtime := core.Airtime(length, sf, !implicit, ldro, cr, bw)
		interval := core.DutyInterval(airtime, duty)
		_ = pterm.DefaultTable.WithData(pterm.TableData{
			{"Frame", pterm.Sprintf("%d bytes", length)},
			{"Modulation", pterm.Sprintf("SF%d BW%g CR4/%d", sf, bw, cr)},
			{"Airtime", pterm.Sprintf("%.3f ms", airtime)},
			{"Duty gate", pterm.Sprintf("%s at %g%%", interval, duty*100)},
		}).Render()
	},
	GroupID: "util",
}

func init() {
	rootCmd.AddCommand(airtimeCmd)
	airtimeCmd.Flags().Uint8("sf", 9, "Spreading factor")
	airtimeCmd.Flags().Float64("bw", 125, "Bandwidth in kHz")
	airtimeCmd.Flags().Uint8("cr", 5, "Coding rate denominator (4/x)")
	airtimeCmd.Flags().IntP("len", "l", protocol.PacketLength, "Frame length in bytes")
	airtimeCmd.Flags().Float64P("duty", "d", 0.01, "Duty cycle as a fraction")
	airtimeCmd.Flags().Bool("implicit", false, "Implicit header mode")
	airtimeCmd.Flags().Bool("ldro", false, "Low data rate optimization")
}
