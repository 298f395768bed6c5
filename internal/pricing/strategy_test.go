package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRandomWalk(t *testing.T) {
	t.Run("moves stay inside the fluctuation band", func(t *testing.T) {
		w := NewRandomWalk(rand.New(rand.NewSource(1)))
		current := decimal.NewFromInt(100)

		for i := 0; i < 500; i++ {
			move := w.Next(current)

			pct := move.Price.Sub(current).Div(current).Mul(decimal.NewFromInt(100)).Abs()
			// Rounding to 2 decimal places can nudge the observed move
			// slightly past the raw band edges.
			if pct.LessThan(decimal.NewFromFloat(0.09)) || pct.GreaterThan(decimal.NewFromFloat(0.51)) {
				t.Fatalf("move %s%% outside [0.1%%, 0.5%%] band (price %s)", pct, move.Price)
			}
			if move.Price.Exponent() < -2 {
				t.Fatalf("price %s not rounded to 2 decimal places", move.Price)
			}
		}
	})

	t.Run("both directions occur", func(t *testing.T) {
		w := NewRandomWalk(rand.New(rand.NewSource(2)))
		current := decimal.NewFromInt(100)

		ups, downs := 0, 0
		for i := 0; i < 200; i++ {
			move := w.Next(current)
			if move.Price.GreaterThan(current) {
				ups++
			} else if move.Price.LessThan(current) {
				downs++
			}
		}
		if ups == 0 || downs == 0 {
			t.Errorf("expected both directions over 200 draws, got %d up and %d down", ups, downs)
		}
	})

	t.Run("never goes below the floor", func(t *testing.T) {
		w := NewRandomWalk(rand.New(rand.NewSource(3)))
		current := RandomWalkFloor

		for i := 0; i < 200; i++ {
			move := w.Next(current)
			if move.Price.LessThan(RandomWalkFloor) {
				t.Fatalf("price %s fell below the floor", move.Price)
			}
			current = move.Price
		}
	})
}

func TestWeightedBands(t *testing.T) {
	t.Run("moves bounded by the widest band", func(t *testing.T) {
		w := NewWeightedBands(rand.New(rand.NewSource(4)))
		current := decimal.NewFromInt(100)

		for i := 0; i < 500; i++ {
			move := w.Next(current)
			pct := move.Price.Sub(current).Div(current).Mul(decimal.NewFromInt(100)).Abs()
			if pct.GreaterThan(decimal.NewFromFloat(2.01)) {
				t.Fatalf("move %s%% outside the 2%% band", pct)
			}
		}
	})

	t.Run("change percent matches the price move", func(t *testing.T) {
		w := NewWeightedBands(rand.New(rand.NewSource(5)))
		current := decimal.NewFromInt(1000)

		for i := 0; i < 100; i++ {
			move := w.Next(current)
			want := current.Add(current.Mul(move.ChangePercent).Div(decimal.NewFromInt(100))).Round(2)
			// ChangePercent is itself rounded, so allow a cent of drift.
			if move.Price.Sub(want).Abs().GreaterThan(decimal.NewFromFloat(0.06)) {
				t.Fatalf("price %s inconsistent with change %s%% (want about %s)",
					move.Price, move.ChangePercent, want)
			}
		}
	})

	t.Run("never goes below the floor", func(t *testing.T) {
		w := NewWeightedBands(rand.New(rand.NewSource(6)))
		current := WeightedBandsFloor

		for i := 0; i < 200; i++ {
			move := w.Next(current)
			if move.Price.LessThan(WeightedBandsFloor) {
				t.Fatalf("price %s fell below the floor", move.Price)
			}
			current = move.Price
		}
	})
}
