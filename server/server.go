// Package server exposes the globe over HTTP: health and metrics probes,
// read-only state endpoints and a websocket control channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"climateglobe/core"
	"climateglobe/globe"
	"climateglobe/observability"
)

// Globe is the part of the globe controller the server talks to
type Globe interface {
	Snapshot() globe.Snapshot
	Overlay() *image.RGBA
	Metrics() map[core.RegionID]core.MetricSet
	Submit(u globe.Update)
	OnChange(fn func(globe.Snapshot))
}

// Options configures a Server
type Options struct {
	Addr     string
	Globe    Globe
	Gatherer prometheus.Gatherer
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Server exposes health, metrics, state and control endpoints
type Server struct {
	httpServer *http.Server
	globe      Globe
	hub        *hub
	logger     *slog.Logger
}

// NewServer creates the HTTP server and starts the websocket broadcaster.
// Routes:
//
//	GET  /healthz      liveness
//	GET  /readyz       ready once the first overlay is bound
//	GET  /metrics      prometheus exposition
//	GET  /state        current selection snapshot
//	GET  /regions      registered regions with bounds and stored metrics
//	GET  /overlay.png  current overlay buffer
//	POST /selection    queue a selection change
//	GET  /ws           websocket control channel
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		globe:  opts.Globe,
		hub:    newHub(opts.Metrics, opts.Logger),
		logger: opts.Logger,
	}

	metricsHandler := promhttp.Handler()
	if opts.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /regions", s.handleRegions)
	mux.HandleFunc("GET /overlay.png", s.handleOverlay)
	mux.HandleFunc("POST /selection", s.handleSelection)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	opts.Globe.OnChange(s.hub.publish)
	go s.hub.run()

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown closes websocket clients and drains HTTP connections within the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.close()
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.globe.Snapshot().OverlayVersion == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "no overlay bound yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.globe.Snapshot())
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type regionInfo struct {
	ID      core.RegionID  `json:"id"`
	Bounds  core.Bounds    `json:"bounds"`
	NW      geoPoint       `json:"nw"`
	SE      geoPoint       `json:"se"`
	Metrics core.MetricSet `json:"metrics"`
	Tier    string         `json:"tier"`
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	stored := s.globe.Metrics()
	ids := core.RegionIDs()
	out := make([]regionInfo, 0, len(ids))
	for _, id := range ids {
		b, _ := core.LookupRegion(id)
		nw, se := core.BoundsGeographic(b)
		m := stored[id]
		out = append(out, regionInfo{
			ID:      id,
			Bounds:  b,
			NW:      geoPoint{Lat: nw.Lat, Lon: nw.Lon},
			SE:      geoPoint{Lat: se.Lat, Lon: se.Lon},
			Metrics: m,
			Tier:    core.ColorForText(m.Temperature).Tier.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOverlay(w http.ResponseWriter, _ *http.Request) {
	img := s.globe.Overlay()
	if img == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no overlay"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.logger.Warn("overlay encode failed", "error", err)
	}
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var msg ControlMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("decode selection: %v", err)})
		return
	}
	u, err := msg.Update(globe.SourceSocket)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.globe.Submit(u)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

// ErrEmptyRegion rejects control messages that name no region
var ErrEmptyRegion = errors.New("region is required")
