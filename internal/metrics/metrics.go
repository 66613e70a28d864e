package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScanCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scan_cycles_total", Help: "Completed scan cycles"},
	)
	SymbolsEvaluatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "symbols_evaluated_total", Help: "Candidate symbols evaluated"},
	)
	SignalsFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_fired_total", Help: "Volume-spike signals fired"},
		[]string{"symbol"},
	)
	OrdersSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_submitted_total", Help: "Market orders submitted"},
		[]string{"symbol", "side", "reason"},
	)
	SignalsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_skipped_total", Help: "Fired signals rejected by the order gate"},
		[]string{"decision"},
	)
	DataFetchErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "data_fetch_errors_total", Help: "Market data fetch failures"},
	)
	OrderErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "order_errors_total", Help: "Order submissions rejected or failed"},
	)

	SessionState = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "session_state", Help: "Session state (0=closed 1=scanning 2=liquidating 3=stopped)"},
	)
	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "open_positions", Help: "Open positions reported by the broker"},
	)
	AccountBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "account_balance", Help: "Account net liquidation value"},
	)
)

func init() {
	prometheus.MustRegister(
		ScanCyclesTotal,
		SymbolsEvaluatedTotal,
		SignalsFiredTotal,
		OrdersSubmittedTotal,
		SignalsSkippedTotal,
		DataFetchErrorsTotal,
		OrderErrorsTotal,
		SessionState,
		OpenPositions,
		AccountBalance,
	)
}
