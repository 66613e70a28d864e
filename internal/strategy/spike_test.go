package strategy

import (
	"context"
	"testing"
	"time"

	"equitySpikeBot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	infoMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func defaultConfig() Config {
	return Config{
		VolumeSpikeMultiplier: 4.0,
		PriceChangeThreshold:  0.007,
		MinStockPrice:         5.0,
		MaxStockPrice:         500.0,
	}
}

// buildSeries constructs a newest-first series: the given latest bar followed
// by count trailing bars with identical volume and a flat price.
func buildSeries(t *testing.T, latest domain.Bar, trailingVolume int64, count int) domain.BarSeries {
	t.Helper()

	base := time.Date(2024, 3, 11, 10, 30, 0, 0, time.UTC)
	latest.Time = base
	bars := []domain.Bar{latest}
	for i := 1; i <= count; i++ {
		bars = append(bars, domain.Bar{
			Time:   base.Add(-time.Duration(i) * time.Minute),
			Open:   20.0,
			High:   20.1,
			Low:    19.9,
			Close:  20.0,
			Volume: trailingVolume,
		})
	}

	series, err := domain.NewBarSeries("XYZ", bars)
	require.NoError(t, err)
	return series
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid config", cfg: defaultConfig(), wantErr: false},
		{name: "zero multiplier", cfg: Config{PriceChangeThreshold: 0.007, MinStockPrice: 5, MaxStockPrice: 500}, wantErr: true},
		{name: "zero threshold", cfg: Config{VolumeSpikeMultiplier: 4, MinStockPrice: 5, MaxStockPrice: 500}, wantErr: true},
		{name: "inverted price range", cfg: Config{VolumeSpikeMultiplier: 4, PriceChangeThreshold: 0.007, MinStockPrice: 500, MaxStockPrice: 5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, &mockLogger{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("nil logger", func(t *testing.T) {
		_, err := New(defaultConfig(), nil)
		assert.Error(t, err)
	})
}

func TestEvaluate(t *testing.T) {
	spike := domain.Bar{Open: 20.0, High: 20.3, Low: 19.9, Close: 20.20, Volume: 1000}

	tests := []struct {
		name      string
		latest    domain.Bar
		trailVol  int64
		trailBars int
		wantFired bool
	}{
		{
			name:      "all three conditions met",
			latest:    spike,
			trailVol:  200, // ratio 5.0 > 4.0, change 0.01 > 0.007, price in range
			trailBars: 20,
			wantFired: true,
		},
		{
			name:      "too few bars",
			latest:    spike,
			trailVol:  200,
			trailBars: 19, // 20 bars total < 21 required
			wantFired: false,
		},
		{
			name:      "extra bars beyond window are ignored",
			latest:    spike,
			trailVol:  200,
			trailBars: 24, // 25 bars total
			wantFired: true,
		},
		{
			name:      "zero average volume",
			latest:    spike,
			trailVol:  0,
			trailBars: 20,
			wantFired: false,
		},
		{
			name:      "volume ratio exactly at multiplier does not fire",
			latest:    domain.Bar{Open: 20.0, Close: 20.20, Volume: 500},
			trailVol:  125, // ratio exactly 4.0
			trailBars: 20,
			wantFired: false,
		},
		{
			name:      "volume ratio above multiplier fires",
			latest:    domain.Bar{Open: 20.0, Close: 20.20, Volume: 500},
			trailVol:  100, // ratio 5.0
			trailBars: 20,
			wantFired: true,
		},
		{
			name:      "price change exactly at threshold does not fire",
			latest:    domain.Bar{Open: 10.0, Close: 10.07, Volume: 1000}, // change 0.007
			trailVol:  200,
			trailBars: 20,
			wantFired: false,
		},
		{
			name:      "price change above threshold fires",
			latest:    domain.Bar{Open: 10.0, Close: 10.08, Volume: 1000}, // change 0.008
			trailVol:  200,
			trailBars: 20,
			wantFired: true,
		},
		{
			name:      "close exactly at lower bound does not fire",
			latest:    domain.Bar{Open: 4.95, Close: 5.0, Volume: 1000},
			trailVol:  200,
			trailBars: 20,
			wantFired: false,
		},
		{
			name:      "close just above lower bound fires",
			latest:    domain.Bar{Open: 4.96, Close: 5.01, Volume: 1000},
			trailVol:  200,
			trailBars: 20,
			wantFired: true,
		},
		{
			name:      "close exactly at upper bound does not fire",
			latest:    domain.Bar{Open: 495.0, Close: 500.0, Volume: 1000},
			trailVol:  200,
			trailBars: 20,
			wantFired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := New(defaultConfig(), &mockLogger{})
			require.NoError(t, err)

			series := buildSeries(t, tt.latest, tt.trailVol, tt.trailBars)
			sig, err := engine.Evaluate(context.Background(), series)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFired, sig.Fired)
			assert.Equal(t, "XYZ", sig.Symbol)
		})
	}
}

func TestEvaluate_Diagnostics(t *testing.T) {
	engine, err := New(defaultConfig(), &mockLogger{})
	require.NoError(t, err)

	latest := domain.Bar{Open: 20.0, Close: 20.20, Volume: 1000}
	series := buildSeries(t, latest, 200, 24)

	sig, err := engine.Evaluate(context.Background(), series)
	require.NoError(t, err)
	assert.True(t, sig.Fired)
	assert.InDelta(t, 5.0, sig.VolumeRatio, 1e-9)
	assert.InDelta(t, 0.01, sig.PriceChangePct, 1e-9)
	assert.InDelta(t, 20.20, sig.ReferencePrice, 1e-9)
}

func TestEvaluate_OutOfOrderSeries(t *testing.T) {
	engine, err := New(defaultConfig(), &mockLogger{})
	require.NoError(t, err)

	base := time.Date(2024, 3, 11, 10, 30, 0, 0, time.UTC)
	bars := make([]domain.Bar, 0, 21)
	for i := 0; i < 21; i++ {
		// Ascending timestamps violate the newest-first contract.
		bars = append(bars, domain.Bar{Time: base.Add(time.Duration(i) * time.Minute), Open: 20, Close: 20, Volume: 100})
	}
	series := domain.BarSeries{Symbol: "XYZ", Bars: bars}

	_, err = engine.Evaluate(context.Background(), series)
	assert.ErrorIs(t, err, domain.ErrOutOfOrder)
}

func TestEvaluate_Idempotent(t *testing.T) {
	engine, err := New(defaultConfig(), &mockLogger{})
	require.NoError(t, err)

	latest := domain.Bar{Open: 20.0, Close: 20.20, Volume: 1000}
	series := buildSeries(t, latest, 200, 20)

	first, err := engine.Evaluate(context.Background(), series)
	require.NoError(t, err)
	second, err := engine.Evaluate(context.Background(), series)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
