package risk

import (
	"context"
	"fmt"
	"testing"

	"equitySpikeBot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func openPositions(symbols ...string) []domain.Position {
	out := make([]domain.Position, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, domain.Position{Symbol: s, Quantity: 10, AvgCost: 20.0})
	}
	return out
}

func TestNewGate(t *testing.T) {
	logger := &mockLogger{}

	_, err := NewGate(Config{MaxPositions: 5, PositionSize: 10}, logger)
	assert.NoError(t, err)

	_, err = NewGate(Config{MaxPositions: 0, PositionSize: 10}, logger)
	assert.Error(t, err)

	_, err = NewGate(Config{MaxPositions: 5, PositionSize: 0}, logger)
	assert.Error(t, err)

	_, err = NewGate(Config{MaxPositions: 5, PositionSize: 10}, nil)
	assert.Error(t, err)
}

func TestApprove(t *testing.T) {
	sig := domain.Signal{Symbol: "XYZ", Fired: true, VolumeRatio: 5.0}

	tests := []struct {
		name      string
		positions []domain.Position
		want      domain.Decision
	}{
		{
			name:      "no open positions",
			positions: nil,
			want:      domain.SubmitBuy,
		},
		{
			name:      "below cap and symbol not held",
			positions: openPositions("AAA", "BBB", "CCC", "DDD"),
			want:      domain.SubmitBuy,
		},
		{
			name:      "symbol already held",
			positions: openPositions("XYZ"),
			want:      domain.SkipExisting,
		},
		{
			name:      "symbol held takes precedence over cap",
			positions: openPositions("XYZ", "AAA", "BBB", "CCC", "DDD"),
			want:      domain.SkipExisting,
		},
		{
			name:      "cap reached",
			positions: openPositions("AAA", "BBB", "CCC", "DDD", "EEE"),
			want:      domain.SkipCap,
		},
		{
			name:      "short position in the symbol still blocks entry",
			positions: []domain.Position{{Symbol: "XYZ", Quantity: -10}},
			want:      domain.SkipExisting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, err := NewGate(Config{MaxPositions: 5, PositionSize: 10}, &mockLogger{})
			require.NoError(t, err)

			got := gate.Approve(context.Background(), sig, tt.positions)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApprove_CapScalesWithConfig(t *testing.T) {
	for _, cap := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("cap=%d", cap), func(t *testing.T) {
			gate, err := NewGate(Config{MaxPositions: cap, PositionSize: 10}, &mockLogger{})
			require.NoError(t, err)

			held := make([]string, cap)
			for i := range held {
				held[i] = fmt.Sprintf("SYM%d", i)
			}

			sig := domain.Signal{Symbol: "XYZ", Fired: true}
			assert.Equal(t, domain.SkipCap, gate.Approve(context.Background(), sig, openPositions(held...)))
			assert.Equal(t, domain.SubmitBuy, gate.Approve(context.Background(), sig, openPositions(held[1:]...)))
		})
	}
}
