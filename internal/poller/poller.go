// Package poller drives the acquisition loop: query each watched event from
// the watermark, decode and emit the logs, advance the watermark, pause.
package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contractwatch/internal/checkpoint"
	"contractwatch/internal/metrics"
	"contractwatch/internal/model"
	"contractwatch/internal/schema"
	"contractwatch/internal/sink"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultFaultDelay   = 5 * time.Second
)

// LogSource is the chain the poller reads from.
type LogSource interface {
	// FilterLogs returns logs of address with signature topic0 from
	// fromBlock (inclusive) to the latest block.
	FilterLogs(ctx context.Context, address common.Address, topic0 common.Hash, fromBlock uint64) ([]types.Log, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// Decoder turns a raw log into an event.
type Decoder interface {
	Decode(log types.Log) model.Event
}

// Config holds runtime settings for the poller.
type Config struct {
	Address      common.Address
	Watch        *schema.WatchSet
	PollInterval time.Duration
	FaultDelay   time.Duration
	// Parallel fans the queries of one cycle out concurrently.
	Parallel   bool
	Checkpoint checkpoint.Store
	Metrics    *metrics.Metrics
}

// Poller owns the block watermark. The watermark only moves after a cycle
// in which every watched event was queried and emitted without error.
type Poller struct {
	cfg     Config
	source  LogSource
	decoder Decoder
	sink    sink.Sink
	logger  *zap.Logger

	watermark atomic.Uint64
	sleep     func(ctx context.Context, delay time.Duration) error
}

// New builds a Poller with its dependencies.
func New(cfg Config, source LogSource, decoder Decoder, out sink.Sink, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FaultDelay <= 0 {
		cfg.FaultDelay = DefaultFaultDelay
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		decoder: decoder,
		sink:    out,
		logger:  logger,
		sleep:   wait,
	}
}

// Watermark returns the lower bound of the next query.
func (p *Poller) Watermark() uint64 {
	return p.watermark.Load()
}

// ResolveStart picks the initial watermark: an explicit from block (0 is
// genesis), then a saved checkpoint, then the current chain height. Errors
// here are fatal.
func (p *Poller) ResolveStart(ctx context.Context, from *uint64) (uint64, error) {
	if from != nil {
		return *from, nil
	}

	if p.cfg.Checkpoint != nil {
		watermark, ok, err := p.cfg.Checkpoint.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			p.logger.Info("resume from checkpoint", zap.Uint64("watermark", watermark))
			return watermark, nil
		}
	}

	latest, err := p.source.LatestBlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("get latest block: %w", err)
	}
	return latest, nil
}

// Run polls from start until ctx is cancelled. Per-cycle failures are
// reported and retried over the same range; Run only returns an error for
// invalid setup.
func (p *Poller) Run(ctx context.Context, start uint64) error {
	if err := p.validate(); err != nil {
		return err
	}

	p.watermark.Store(start)
	p.cfg.Metrics.Watermark(start)

	for {
		if ctx.Err() != nil {
			return nil
		}

		delay := p.cfg.PollInterval
		if err := p.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.fault(err)
			delay = p.cfg.FaultDelay
		}

		if ctx.Err() != nil {
			return nil
		}
		if err := p.sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// Step runs one cycle from the current watermark and commits the new
// watermark when it succeeds.
func (p *Poller) Step(ctx context.Context) error {
	if err := p.validate(); err != nil {
		return err
	}

	from := p.Watermark()
	height, err := p.cycle(ctx, from)
	if err != nil {
		return err
	}
	return p.commit(ctx, from, height)
}

func (p *Poller) validate() error {
	if p.source == nil {
		return fmt.Errorf("log source is nil")
	}
	if p.decoder == nil {
		return fmt.Errorf("decoder is nil")
	}
	if p.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if p.cfg.Watch == nil || p.cfg.Watch.Len() == 0 {
		return fmt.Errorf("watch set is empty")
	}
	return nil
}

func (p *Poller) cycle(ctx context.Context, from uint64) (uint64, error) {
	events := p.cfg.Watch.Events()

	if p.cfg.Parallel {
		results := make([][]types.Log, len(events))
		g, gctx := errgroup.WithContext(ctx)
		for i, sig := range events {
			i, sig := i, sig
			g.Go(func() error {
				logs, err := p.query(gctx, sig, from)
				results[i] = logs
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}
		for i, sig := range events {
			if err := p.emit(ctx, sig, results[i]); err != nil {
				return 0, err
			}
		}
	} else {
		for _, sig := range events {
			logs, err := p.query(ctx, sig, from)
			if err != nil {
				return 0, err
			}
			if err := p.emit(ctx, sig, logs); err != nil {
				return 0, err
			}
		}
	}

	height, err := p.source.LatestBlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("get latest block: %w", err)
	}
	return height, nil
}

func (p *Poller) query(ctx context.Context, sig *schema.EventSignature, from uint64) ([]types.Log, error) {
	started := time.Now()
	logs, err := p.source.FilterLogs(ctx, p.cfg.Address, sig.Topic, from)
	p.cfg.Metrics.ObserveQuery(sig.Name, time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("get logs %s from %d: %w", sig.Name, from, err)
	}
	p.logger.Debug("fetched logs", zap.String("event", sig.Name), zap.Uint64("from", from), zap.Int("logs", len(logs)))
	return logs, nil
}

func (p *Poller) emit(ctx context.Context, sig *schema.EventSignature, logs []types.Log) error {
	for _, log := range logs {
		ev := p.decoder.Decode(log)

		name := ""
		switch typed := ev.(type) {
		case *model.DecodedEvent:
			name = typed.Name
		case *model.UndecodedEvent:
			p.logger.Debug("could not decode log",
				zap.String("event", sig.Name),
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.Uint64("block_number", log.BlockNumber),
				zap.String("reason", typed.Reason),
			)
		}
		p.cfg.Metrics.Event(ev.Kind(), name)

		if err := p.sink.Emit(ctx, ev); err != nil {
			return fmt.Errorf("emit %s log %s: %w", sig.Name, log.TxHash.Hex(), err)
		}
	}
	return nil
}

func (p *Poller) commit(ctx context.Context, from, height uint64) error {
	next := height
	if next < from {
		next = from
	}

	if c, ok := p.sink.(sink.Committer); ok {
		if err := c.Committed(next); err != nil {
			return fmt.Errorf("commit sink: %w", err)
		}
	}

	p.watermark.Store(next)
	p.cfg.Metrics.CycleCompleted(next)
	p.logger.Debug("cycle complete", zap.Uint64("from", from), zap.Uint64("watermark", next))

	if p.cfg.Checkpoint != nil {
		if err := p.cfg.Checkpoint.Save(ctx, next); err != nil {
			p.logger.Warn("save checkpoint failed", zap.Error(err), zap.Uint64("watermark", next))
		}
	}
	return nil
}

func (p *Poller) fault(err error) {
	p.logger.Warn("poll cycle failed",
		zap.Error(err),
		zap.Uint64("from", p.Watermark()),
		zap.Duration("retry_in", p.cfg.FaultDelay),
	)
	p.cfg.Metrics.Fault()
	p.sink.Fault(err)
}
