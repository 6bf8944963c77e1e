package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "watcher",
		Short:        "Contract event watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	listenCmd := &cobra.Command{
		Use:   "listen [EVENT...]",
		Short: "Poll the contract and print its events",
		RunE:  runListen,
	}

	listenCmd.Flags().String("rpc", "", "RPC endpoint URL")
	listenCmd.Flags().String("address", "", "contract address")
	listenCmd.Flags().String("abi", "", "contract ABI or build artifact JSON")
	listenCmd.Flags().StringSlice("events", nil, "event names to watch (comma-separated), empty means all")
	listenCmd.Flags().Uint64("from", 0, "start block (inclusive), unset means checkpoint or latest")
	listenCmd.Flags().Duration("poll-interval", 2*time.Second, "pause between successful cycles")
	listenCmd.Flags().Duration("fault-delay", 5*time.Second, "pause after a failed cycle")
	listenCmd.Flags().Bool("parallel", false, "query watched events concurrently")
	listenCmd.Flags().String("out", "", "append events to this JSONL file")
	listenCmd.Flags().Bool("console", true, "print events to stdout")
	listenCmd.Flags().Bool("no-color", false, "disable colored console output")
	listenCmd.Flags().Bool("dedup", true, "suppress logs re-delivered by the block overlap")
	listenCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	listenCmd.Flags().Bool("checkpoint-enabled", false, "persist the watermark between runs")
	listenCmd.Flags().String("pg-dsn", "", "Postgres DSN, keeps the checkpoint in the database")
	listenCmd.Flags().Float64("rpc-rate-limit", 0, "max RPC requests per second, 0 means unlimited")
	listenCmd.Flags().Int("rpc-burst", 1, "RPC rate limiter burst")
	listenCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address")
	listenCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(listenCmd)

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List the events declared in the ABI",
		RunE:  runEvents,
	}

	eventsCmd.Flags().String("abi", "", "contract ABI or build artifact JSON")

	root.AddCommand(eventsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
