package domain

import (
	"errors"
	"time"
)

// ErrOutOfOrder is returned when a bar series violates the newest-first
// ordering contract of the data provider.
var ErrOutOfOrder = errors.New("bar series is not ordered newest-first")

// Bar represents a single OHLCV observation for a one-minute interval.
// Immutable once fetched.
type Bar struct {
	Time   time.Time // Start time of the interval
	Open   float64   // Opening price
	High   float64   // Highest price
	Low    float64   // Lowest price
	Close  float64   // Closing price
	Volume int64     // Traded volume
}

// BarSeries is an ordered sequence of bars for one symbol, newest-first.
// A series is created fresh on every fetch and never mutated, only replaced.
type BarSeries struct {
	Symbol string
	Bars   []Bar
}

// NewBarSeries builds a series and verifies the newest-first ordering
// invariant. The ordering is asserted rather than repaired: a provider
// returning shuffled bars is a diagnosable fault, not data to be re-sorted.
func NewBarSeries(symbol string, bars []Bar) (BarSeries, error) {
	s := BarSeries{Symbol: symbol, Bars: bars}
	if err := s.Validate(); err != nil {
		return BarSeries{}, err
	}
	return s, nil
}

// Validate checks that timestamps are strictly descending (no duplicates).
func (s BarSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Time.Before(s.Bars[i-1].Time) {
			return ErrOutOfOrder
		}
	}
	return nil
}

// Len returns the number of bars in the series.
func (s BarSeries) Len() int {
	return len(s.Bars)
}

// Latest returns the most recent bar. The second return value is false for
// an empty series.
func (s BarSeries) Latest() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[0], true
}
