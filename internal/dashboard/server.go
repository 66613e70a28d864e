package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"equitySpikeBot/internal/domain"
	"equitySpikeBot/internal/ports"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the bot's state to observers: a JSON status endpoint, a
// websocket stream of state updates, and Prometheus metrics. It is a passive
// consumer; it receives immutable snapshots via Publish and has no write
// access to controller state.
const recentOrdersLimit = 50

type Server struct {
	logger   ports.Logger
	journal  ports.OrderJournal
	srv      *http.Server
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	latest  domain.Snapshot
	clients map[*websocket.Conn]struct{}
}

// NewServer creates a dashboard server listening on addr once Start is called.
func NewServer(addr string, journal ports.OrderJournal, logger ports.Logger) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for dashboard server")
	}
	if journal == nil {
		return nil, fmt.Errorf("order journal is required for dashboard server")
	}

	s := &Server{
		logger:  logger,
		journal: journal,
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// The dashboard is an internal tool; any origin may subscribe.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/orders", s.handleOrders)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error(context.Background(), err, "Dashboard server stopped unexpectedly")
		}
	}()
	s.logger.Info(context.Background(), "Dashboard server started", map[string]interface{}{"addr": s.srv.Addr})
}

// Shutdown stops the HTTP server and closes all websocket subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	return s.srv.Shutdown(ctx)
}

// Publish stores the snapshot as the latest state and pushes it to all
// websocket subscribers. Dead connections are dropped.
func (s *Server) Publish(snap domain.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error(context.Background(), err, "Failed to encode snapshot")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.latest
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error(r.Context(), err, "Failed to write status response")
	}
}

type orderView struct {
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`
	Quantity       int64     `json:"quantity"`
	Reason         string    `json:"reason"`
	VolumeRatio    float64   `json:"volume_ratio,omitempty"`
	PriceChangePct float64   `json:"price_change_pct,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	records, err := s.journal.FindRecent(r.Context(), recentOrdersLimit)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to read recent orders")
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}

	views := make([]orderView, 0, len(records))
	for _, rec := range records {
		views = append(views, orderView{
			Symbol:         rec.Symbol,
			Side:           string(rec.Side),
			Quantity:       rec.Quantity,
			Reason:         string(rec.Reason),
			VolumeRatio:    rec.VolumeRatio,
			PriceChangePct: rec.PriceChangePct,
			SubmittedAt:    rec.SubmittedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		s.logger.Error(r.Context(), err, "Failed to write orders response")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(r.Context(), err, "Websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	latest, err := json.Marshal(s.latest)
	s.mu.Unlock()
	if err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, latest)
	}

	// Subscribers never send data; the read loop only detects disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}
