package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/loralayer2/ll2/core"
	"github.com/loralayer2/ll2/sim"
	"github.com/loralayer2/ll2/state"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	simConfigPath string
	simSeed       uint64
	simRaw        bool
	simHttp       string
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a simulated LoRa network",
	Long:  `Runs every node of the config against an in-memory radio channel for the configured duration, then prints the tables each node converged to.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := state.LoadSimConfig(simConfigPath)
		if err != nil {
			pterm.Error.Println(err.Error())
			os.Exit(1)
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}

		opts := sim.Options{Console: os.Stderr, Level: level, Seed: simSeed}
		if ok, _ := cmd.Flags().GetBool("trace"); ok {
			trace := core.NewTrace()
			defer trace.Close()
			stop := trace.Listen(printTraceEvent)
			defer stop()
			opts.Trace = trace
		}

		if simHttp != "" {
			srv := &http.Server{Addr: simHttp}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("metrics server failed", "err", err)
				}
			}()
			defer srv.Shutdown(context.Background())
			pterm.Info.Printfln("serving metrics on http://%s/debug/metrics", simHttp)
		}

		net, err := sim.New(cfg, opts)
		if err != nil {
			pterm.Error.Println(err.Error())
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		start := time.Now()
		if err := net.Start(ctx); err != nil {
			_ = net.Close()
			pterm.Error.Println(err.Error())
			os.Exit(1)
		}
		if err := net.Wait(ctx); err != nil {
			pterm.Warning.Println("interrupted:", err.Error())
		}
		if err := net.Close(); err != nil {
			slog.Warn("failed to close logs", "err", err)
		}

		pterm.Println()
		pterm.Info.Printfln("simulated %s", time.Since(start).Round(time.Millisecond))
		for _, node := range net.Nodes {
			if err := printNode(node, simRaw); err != nil {
				panic(err)
			}
		}
	},
	GroupID: "ll2",
}

func init() {
	rootCmd.AddCommand(simCmd)

	simCmd.Flags().StringVarP(&simConfigPath, "config", "c", DefaultSimConfigPath, "Path to the simulation config")
	simCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	simCmd.Flags().Bool("trace", false, "Print every packet event")
	simCmd.Flags().Uint64Var(&simSeed, "seed", 1, "Seed of the link loss generator")
	simCmd.Flags().BoolVar(&simRaw, "raw", false, "Print tables in the plain text layout")
	simCmd.Flags().StringVar(&simHttp, "http", "", "Serve expvar metrics on this address")
	simCmd.Flags().BoolVarP(&state.DBG_log_router, "lroute", "r", false, "Write router events to the console")
	simCmd.Flags().BoolVarP(&state.DBG_log_packets, "lpacket", "p", false, "Write radio channel activity to the console")
	simCmd.Flags().BoolVarP(&state.DBG_log_route_table, "ltable", "t", false, "Outputs route table to the console on every advertisement")
}
