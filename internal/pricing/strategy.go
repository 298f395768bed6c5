// Package pricing simulates market movement. Prices are nudged either by the
// global background ticker (every stock, fixed fluctuation band) or lazily on
// read for watched stocks (weighted probability bands). The two policies
// produce observably different movement and are kept as separate strategies.
package pricing

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Strategy computes the next simulated price from the current one.
// Implementations must clamp to their price floor and round to 2 decimal places.
type Strategy interface {
	Next(current decimal.Decimal) Move
}

// Move is the result of applying a strategy: the new price and the signed
// percentage change that produced it.
type Move struct {
	Price         decimal.Decimal
	ChangePercent decimal.Decimal
}

// RandomWalk nudges the price by a uniform magnitude in [0.1%, 0.5%] with a
// 50/50 up/down direction. Used by the global ticker.
type RandomWalk struct {
	mu    sync.Mutex
	rng   *rand.Rand
	floor decimal.Decimal
}

const (
	minFluctuation = 0.001 // 0.1%
	maxFluctuation = 0.005 // 0.5%
)

// RandomWalkFloor is the minimum price the global ticker will ever write.
var RandomWalkFloor = decimal.NewFromInt(1)

// NewRandomWalk creates a RandomWalk strategy. A nil rng gets a time-seeded one.
func NewRandomWalk(rng *rand.Rand) *RandomWalk {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomWalk{rng: rng, floor: RandomWalkFloor}
}

// Next returns the next price within the fluctuation band.
func (w *RandomWalk) Next(current decimal.Decimal) Move {
	w.mu.Lock()
	magnitude := minFluctuation + w.rng.Float64()*(maxFluctuation-minFluctuation)
	up := w.rng.Float64() > 0.5
	w.mu.Unlock()

	changePct := magnitude * 100
	if !up {
		changePct = -changePct
	}
	return apply(current, changePct, w.floor)
}

// WeightedBands simulates more organic movement for on-demand refresh:
// 60% chance of a small move in ±0.5%, 25% medium in ±1%, 15% large in ±2%.
// The floor on this path is higher than the global ticker's.
type WeightedBands struct {
	mu    sync.Mutex
	rng   *rand.Rand
	floor decimal.Decimal
}

// WeightedBandsFloor is the minimum price the lazy refresh path will ever write.
var WeightedBandsFloor = decimal.NewFromInt(50)

// NewWeightedBands creates a WeightedBands strategy. A nil rng gets a time-seeded one.
func NewWeightedBands(rng *rand.Rand) *WeightedBands {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &WeightedBands{rng: rng, floor: WeightedBandsFloor}
}

// Next returns the next price drawn from the weighted bands.
func (w *WeightedBands) Next(current decimal.Decimal) Move {
	w.mu.Lock()
	band := w.rng.Float64()
	draw := w.rng.Float64() - 0.5
	w.mu.Unlock()

	var changePct float64
	switch {
	case band < 0.6:
		changePct = draw * 1 // ±0.5%
	case band < 0.85:
		changePct = draw * 2 // ±1%
	default:
		changePct = draw * 4 // ±2%
	}
	return apply(current, changePct, w.floor)
}

// apply computes current * (1 + changePct/100), clamps to floor, rounds to 2dp.
func apply(current decimal.Decimal, changePct float64, floor decimal.Decimal) Move {
	pct := decimal.NewFromFloat(changePct)
	next := current.Add(current.Mul(pct).Div(decimal.NewFromInt(100))).Round(2)
	if next.LessThan(floor) {
		next = floor
	}
	return Move{Price: next, ChangePercent: pct.Round(2)}
}
