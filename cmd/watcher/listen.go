package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contractwatch/internal/chain"
	"contractwatch/internal/checkpoint"
	"contractwatch/internal/config"
	"contractwatch/internal/decoder"
	"contractwatch/internal/metrics"
	"contractwatch/internal/poller"
	"contractwatch/internal/schema"
	"contractwatch/internal/sink"
	"contractwatch/internal/storage"
	"contractwatch/internal/storage/postgres"
)

func runListen(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Events = args
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	address, err := chain.ParseAddress(cfg.Address)
	if err != nil {
		return err
	}

	registry, err := schema.Load(cfg.ABIPath)
	if err != nil {
		return err
	}
	watch, err := registry.ResolveWatchSet(cfg.Events)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		RateLimit: cfg.RPCRateLimit,
		Burst:     cfg.RPCBurst,
	})
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	store, err := newCheckpointStore(ctx, cfg, config.CheckpointName(chainID.String(), address.Hex()))
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	out := newSink(cmd.OutOrStdout(), cfg)

	p := poller.New(poller.Config{
		Address:      address,
		Watch:        watch,
		PollInterval: cfg.PollInterval,
		FaultDelay:   cfg.FaultDelay,
		Parallel:     cfg.Parallel,
		Checkpoint:   store,
		Metrics:      m,
	}, chainClient, decoder.New(registry, watch), out, logger)

	start, err := p.ResolveStart(ctx, cfg.FromBlock)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("address", address.Hex()),
		zap.Uint64("from", start),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Bool("parallel", cfg.Parallel),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", store != nil),
	}
	if watch.All() {
		logger.Info("listening to all events", fields...)
	} else {
		logger.Info("listening to events", append(fields, zap.Strings("events", watch.Names()))...)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.MetricsAddr, reg, logger)
		})
	}
	g.Go(func() error {
		err := p.Run(gctx, start)
		stop()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("watcher stopped", zap.Uint64("watermark", p.Watermark()))
	return nil
}

func newSink(stdout io.Writer, cfg config.Config) sink.Sink {
	var sinks sink.Multi
	if cfg.Console {
		sinks = append(sinks, sink.NewConsole(stdout, cfg.NoColor))
	}
	if cfg.Out != "" {
		sinks = append(sinks, sink.NewJSONL(storage.NewJsonlStorage(cfg.Out)))
	}

	var out sink.Sink = sinks
	if len(sinks) == 1 {
		out = sinks[0]
	}
	if cfg.Dedup {
		out = sink.NewDedup(out)
	}
	return out
}

type dbCheckpoint struct {
	checkpoint.DBStore
}

func (d *dbCheckpoint) Close() error {
	d.Store.Close()
	return nil
}

func newCheckpointStore(ctx context.Context, cfg config.Config, name string) (checkpoint.Store, error) {
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return &dbCheckpoint{DBStore: checkpoint.DBStore{Store: pg, Name: name}}, nil
	}
	if cfg.CheckpointEnabled {
		return &checkpoint.FileStore{Path: cfg.Checkpoint, Name: name}, nil
	}
	return nil, nil
}
