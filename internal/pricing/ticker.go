package pricing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"paperbull/internal/logger"
)

// MarketUpdater is the slice of the market service the ticker needs: apply a
// strategy to every stock as a batch of individually-atomic writes.
type MarketUpdater interface {
	UpdateAllPrices(ctx context.Context, strategy Strategy) (int, error)
}

// Ticker is the singleton background price-fluctuation process. Each tick
// updates every stock, then schedules the next tick after a fresh uniform
// draw in [minInterval, maxInterval]. Ticks never overlap: the next one is
// scheduled only after the previous batch finishes.
type Ticker struct {
	market   MarketUpdater
	strategy Strategy
	interval func() time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTicker creates a ticker that draws each gap uniformly from
// [minInterval, maxInterval].
func NewTicker(market MarketUpdater, strategy Strategy, minInterval, maxInterval time.Duration) *Ticker {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var mu sync.Mutex
	return &Ticker{
		market:   market,
		strategy: strategy,
		interval: func() time.Duration {
			mu.Lock()
			defer mu.Unlock()
			return minInterval + time.Duration(rng.Int63n(int64(maxInterval-minInterval)+1))
		},
	}
}

// NewTickerWithInterval creates a ticker with an injected gap function.
func NewTickerWithInterval(market MarketUpdater, strategy Strategy, interval func() time.Duration) *Ticker {
	return &Ticker{market: market, strategy: strategy, interval: interval}
}

// Start launches the ticker loop. The first tick fires immediately. Calling
// Start while a loop is already running cancels the previous schedule before
// starting a new one, so at most one loop is ever live.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	logger.Get().Info("Starting price fluctuation process")
	go t.loop(ctx, done)
}

// Stop cancels the pending reschedule and waits for the loop to exit.
// The market store is left as last written.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Ticker) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
	logger.Get().Info("Price fluctuation process stopped")
}

func (t *Ticker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		t.tick(ctx)

		timer := time.NewTimer(t.interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick runs one batch update. Failures are logged and do not stop the loop;
// the process self-resumes on its next scheduled tick.
func (t *Ticker) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	updated, err := t.market.UpdateAllPrices(ctx, t.strategy)
	if err != nil {
		logger.Get().Errorw("price tick failed", "error", err)
		return
	}
	logger.Get().Debugw("price tick", "stocks_updated", updated)
}
