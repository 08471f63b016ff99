package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/arbitrage"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/oracle"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	"github.com/tdex-network/oracle-dispatcher/pkg/dispatcher"
	"github.com/tdex-network/oracle-dispatcher/pkg/heartbeat"
	"github.com/tdex-network/oracle-dispatcher/pkg/mathutil"
)

const (
	ReadDataTask  = "readData"
	FeedDataTask  = "feedData"
	TradeDexTask  = "tradeDex"
	FeedNoiseTask = "feedNoise"

	OnPriceEvent = "onPrice"

	DefaultHeartbeatMultiplier = 4
)

// OracleSubmitter feeds price batches to the on-ledger oracle.
type OracleSubmitter interface {
	Submit(ctx context.Context, batch domain.PriceBatch) (oracle.Receipt, error)
}

// Rebalancer aligns the dex pools with a price batch.
type Rebalancer interface {
	Rebalance(ctx context.Context, batch domain.PriceBatch) (arbitrage.Result, error)
}

type DispatcherOpts struct {
	Interval      time.Duration
	SubmitTimeout time.Duration
	// HeartbeatMultiplier sets the dead period of every task heartbeat to
	// Interval * HeartbeatMultiplier.
	HeartbeatMultiplier int
	// NoiseInterval enables the feedNoise task if greater than zero.
	NoiseInterval time.Duration
	NoiseBps      int
	// Random returns a number in [0, 1). Defaults to math/rand.
	Random func() float64
	// Clock, if set, is the time source of the task heartbeats.
	Clock heartbeat.Clock
}

// Dispatcher schedules the oracle tasks: readData fetches prices every
// interval and emits them on the onPrice event, to which feedData and, if a
// rebalancer is given, tradeDex are subscribed.
type Dispatcher struct {
	fetcher    ports.PriceFetcher
	submitter  OracleSubmitter
	rebalancer Rebalancer
	opts       DispatcherOpts

	onPrice    *dispatcher.Event
	scheduler  *dispatcher.Dispatcher
	heartbeats *heartbeat.Group
	readHB     *heartbeat.Heartbeat
	feedHB     *heartbeat.Heartbeat
	tradeHB    *heartbeat.Heartbeat

	lock      *sync.RWMutex
	lastBatch *domain.PriceBatch
	// feedData and feedNoise read the same account nonce, their
	// submissions must not overlap.
	submitLock *sync.Mutex

	log *log.Entry
}

// NewDispatcher returns a dispatcher ready to be started. rebalancer may be
// nil, in which case arbitrage is disabled.
func NewDispatcher(
	fetcher ports.PriceFetcher,
	submitter OracleSubmitter,
	rebalancer Rebalancer,
	opts DispatcherOpts,
) (*Dispatcher, error) {
	if fetcher == nil {
		return nil, ErrMissingPriceFetcher
	}
	if submitter == nil {
		return nil, ErrMissingSubmitter
	}
	if opts.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if opts.HeartbeatMultiplier <= 0 {
		opts.HeartbeatMultiplier = DefaultHeartbeatMultiplier
	}
	if opts.NoiseInterval > 0 && opts.NoiseBps <= 0 {
		return nil, ErrInvalidNoiseBps
	}
	if opts.Random == nil {
		opts.Random = rand.Float64
	}

	d := &Dispatcher{
		fetcher:    fetcher,
		submitter:  submitter,
		rebalancer: rebalancer,
		opts:       opts,
		onPrice:    dispatcher.NewEvent(OnPriceEvent),
		heartbeats: heartbeat.NewGroup(),
		lock:       &sync.RWMutex{},
		submitLock: &sync.Mutex{},
		log:        log.WithField("module", "app"),
	}

	var hbOpts []heartbeat.Option
	if opts.Clock != nil {
		hbOpts = append(hbOpts, heartbeat.WithClock(opts.Clock))
	}
	deadPeriod := opts.Interval * time.Duration(opts.HeartbeatMultiplier)
	d.readHB = heartbeat.New(deadPeriod, hbOpts...)
	d.feedHB = heartbeat.New(deadPeriod, hbOpts...)
	_ = d.heartbeats.Add(ReadDataTask, d.readHB)
	_ = d.heartbeats.Add(FeedDataTask, d.feedHB)

	builder := dispatcher.NewBuilder().
		AddHandler(dispatcher.OnInterval(dispatcher.IntervalOpts{
			Interval:    opts.Interval,
			Immediately: true,
		}, ReadDataTask, d.readData)).
		AddHandler(dispatcher.OnEvent(d.onPrice, dispatcher.HandlerOpts{
			Timeout: opts.SubmitTimeout,
		}, FeedDataTask, d.feedData))

	if rebalancer != nil {
		d.tradeHB = heartbeat.New(deadPeriod, hbOpts...)
		_ = d.heartbeats.Add(TradeDexTask, d.tradeHB)
		builder.AddHandler(dispatcher.OnEvent(d.onPrice, dispatcher.HandlerOpts{
			Timeout: opts.SubmitTimeout,
		}, TradeDexTask, d.tradeDex))
	}
	if opts.NoiseInterval > 0 {
		builder.AddHandler(dispatcher.OnInterval(dispatcher.IntervalOpts{
			Interval: opts.NoiseInterval,
			Timeout:  opts.SubmitTimeout,
		}, FeedNoiseTask, d.feedNoise))
	}
	d.scheduler = builder.Build()

	return d, nil
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if err := d.scheduler.Start(ctx); err != nil {
		return err
	}
	d.log.WithFields(log.Fields{
		"interval":  d.opts.Interval.String(),
		"arbitrage": d.rebalancer != nil,
		"noise":     d.opts.NoiseInterval > 0,
	}).Info("dispatcher started")
	return nil
}

// Stop halts every task and waits for in-flight runs to return.
func (d *Dispatcher) Stop() {
	d.scheduler.Stop()
	d.log.Info("dispatcher stopped")
}

// Heartbeats returns the group of task heartbeats.
func (d *Dispatcher) Heartbeats() *heartbeat.Group {
	return d.heartbeats
}

// OnPrice returns the event emitted with every fresh price batch.
func (d *Dispatcher) OnPrice() *dispatcher.Event {
	return d.onPrice
}

// LastBatch returns the last successfully read batch, if any.
func (d *Dispatcher) LastBatch() (domain.PriceBatch, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.lastBatch == nil {
		return domain.PriceBatch{}, false
	}
	return *d.lastBatch, true
}

func (d *Dispatcher) readData(ctx context.Context) error {
	batch, err := d.fetcher.FetchPrices(ctx)
	if err != nil {
		return fmt.Errorf("failed to read prices: %w", err)
	}

	d.lock.Lock()
	d.lastBatch = &batch
	d.lock.Unlock()

	d.onPrice.Emit(ctx, batch)
	d.readHB.MarkAlive()

	d.log.WithFields(log.Fields{
		"cycle":  batch.ID.String(),
		"prices": batch.Prices(),
	}).Info("prices read")
	return nil
}

func (d *Dispatcher) feedData(ctx context.Context, payload interface{}) error {
	batch, ok := payload.(domain.PriceBatch)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidPayload, payload)
	}
	return d.submit(ctx, batch)
}

func (d *Dispatcher) feedNoise(ctx context.Context) error {
	last, ok := d.LastBatch()
	if !ok {
		d.log.Debug("no price read yet, skipping noise")
		return nil
	}

	bps := decimal.NewFromInt(int64(d.opts.NoiseBps))
	noisy := last.Map(func(price decimal.Decimal) decimal.Decimal {
		// uniform in [-bps, +bps]
		jitter := decimal.NewFromFloat(d.opts.Random()*2 - 1).Mul(bps)
		return mathutil.PlusBasisPoints(price, jitter).Truncate(mathutil.BaseUnitDecimals)
	})
	return d.submit(ctx, noisy)
}

func (d *Dispatcher) submit(ctx context.Context, batch domain.PriceBatch) error {
	logger := d.log.WithFields(log.Fields{
		"cycle":   batch.ID.String(),
		"symbols": batch.Symbols(),
		"values":  batch.Prices(),
	})

	d.submitLock.Lock()
	receipt, err := d.submitter.Submit(ctx, batch)
	d.submitLock.Unlock()
	if err != nil {
		if errors.Is(err, oracle.ErrNotOperator) {
			logger.WithError(err).Warn("skipping oracle feed")
			return nil
		}
		return fmt.Errorf("failed to feed oracle: %w", err)
	}
	d.feedHB.MarkAlive()

	logger.WithFields(log.Fields{
		"protocol":  receipt.Protocol.String(),
		"txHash":    receipt.TxHash,
		"blockHash": receipt.BlockHash,
	}).Info("oracle fed")
	return nil
}

func (d *Dispatcher) tradeDex(ctx context.Context, payload interface{}) error {
	batch, ok := payload.(domain.PriceBatch)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidPayload, payload)
	}

	result, err := d.rebalancer.Rebalance(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to rebalance pools: %w", err)
	}
	d.tradeHB.MarkAlive()

	if len(result.Swaps) == 0 {
		d.log.WithField("cycle", batch.ID.String()).Debug("pools balanced, nothing to swap")
	}
	return nil
}
