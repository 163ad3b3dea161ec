// Package api serves the read-only engine state over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/models"
	"github.com/fixitpro/fixit-engine/internal/store"
)

// Reader is the read facade the handlers serve from
type Reader interface {
	Picks() []models.Pick
	Stats() models.Stats
	TopLeagues(n int) []models.LeagueCount
	GroupedMatches(now time.Time) map[string][]models.MatchSummary
	Status() models.Status
	LastUpdated() string
	Counts() store.Counts
}

// Refresher starts refresh cycles
type Refresher interface {
	// TryRefresh claims the cycle slot or fails, then runs the cycle in the
	// background and reports its result to done.
	TryRefresh(ctx context.Context, done func(error)) error
	IsRunning() bool
}

// StatsResponse is the public view of the stats document
type StatsResponse struct {
	Wins        int            `json:"ganadas"`
	Losses      int            `json:"perdidas"`
	Leagues     map[string]int `json:"ligas"`
	Total       int            `json:"total"`
	SuccessRate float64        `json:"success_rate"`
}

// StatusResponse describes the engine status
type StatusResponse struct {
	models.Status
	LastUpdated string       `json:"last_updated"`
	Counts      store.Counts `json:"counts"`
	NextRun     *time.Time   `json:"next_run,omitempty"`
	Refreshing  bool         `json:"refreshing"`
	Listeners   int          `json:"ws_clients"`
}

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the API endpoints
type Handler struct {
	reader         Reader
	refresher      Refresher
	hub            *Hub
	ctx            context.Context
	refreshTimeout time.Duration
	defaultTop     int
	nextRun        func() time.Time
	now            func() time.Time
	logger         *logrus.Entry
	upgrader       websocket.Upgrader
}

// HandlerConfig configures a Handler
type HandlerConfig struct {
	// Ctx bounds background refreshes and WebSocket sessions
	Ctx            context.Context
	RefreshTimeout time.Duration
	DefaultTop     int
	NextRun        func() time.Time
	AllowedOrigins []string
}

// NewHandler creates a new handler instance
func NewHandler(reader Reader, refresher Refresher, hub *Hub, cfg HandlerConfig, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 10 * time.Minute
	}
	if cfg.DefaultTop <= 0 {
		cfg.DefaultTop = 3
	}

	return &Handler{
		reader:         reader,
		refresher:      refresher,
		hub:            hub,
		ctx:            cfg.Ctx,
		refreshTimeout: cfg.RefreshTimeout,
		defaultTop:     cfg.DefaultTop,
		nextRun:        cfg.NextRun,
		now:            time.Now,
		logger:         logger.WithField("component", "api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

// GetPicks returns the current shortlist
func (h *Handler) GetPicks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reader.Picks())
}

// GetStats returns win/loss counters
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.reader.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		Wins:        stats.Wins,
		Losses:      stats.Losses,
		Leagues:     stats.Leagues,
		Total:       stats.Total(),
		SuccessRate: stats.SuccessRate(),
	})
}

// GetTopLeagues returns the leagues with most wins; ?n= overrides the count
func (h *Handler) GetTopLeagues(w http.ResponseWriter, r *http.Request) {
	n := h.defaultTop
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "n must be an integer between 1 and 100"})
			return
		}
		n = parsed
	}
	writeJSON(w, http.StatusOK, h.reader.TopLeagues(n))
}

// GetMatches returns window fixtures grouped by league
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reader.GroupedMatches(h.now()))
}

// GetStatus returns the refresh status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:      h.reader.Status(),
		LastUpdated: h.reader.LastUpdated(),
		Counts:      h.reader.Counts(),
		Refreshing:  h.refresher.IsRunning(),
	}
	if h.hub != nil {
		resp.Listeners = h.hub.ClientCount()
	}
	if h.nextRun != nil {
		if next := h.nextRun(); !next.IsZero() {
			resp.NextRun = &next
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// PostRefresh starts a refresh in the background
func (h *Handler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(h.ctx, h.refreshTimeout)
	err := h.refresher.TryRefresh(ctx, func(err error) {
		defer cancel()
		if err != nil {
			h.logger.WithError(err).Warn("Manual refresh did not complete")
		}
	})
	if err != nil {
		cancel()
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "refresh already in progress"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleWebSocket upgrades the connection and streams status updates
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	c := h.hub.register(conn)
	go h.hub.writePump(h.ctx, c)
	go h.hub.readPump(c)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		logrus.WithError(err).Debug("Failed to encode response")
	}
}
