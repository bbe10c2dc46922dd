package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climateglobe/core"
	"climateglobe/globe"
	"climateglobe/observability"
)

type fakeGlobe struct {
	mu        sync.Mutex
	snap      globe.Snapshot
	overlay   *image.RGBA
	metrics   map[core.RegionID]core.MetricSet
	submitted []globe.Update
	listeners []func(globe.Snapshot)
}

func (f *fakeGlobe) Snapshot() globe.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeGlobe) Overlay() *image.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlay
}

func (f *fakeGlobe) Metrics() map[core.RegionID]core.MetricSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics
}

func (f *fakeGlobe) Submit(u globe.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, u)
}

func (f *fakeGlobe) OnChange(fn func(globe.Snapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *fakeGlobe) fire(s globe.Snapshot) {
	f.mu.Lock()
	f.snap = s
	ls := append([]func(globe.Snapshot){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range ls {
		fn(s)
	}
}

func (f *fakeGlobe) updates() []globe.Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]globe.Update{}, f.submitted...)
}

func newTestServer(t *testing.T, g *fakeGlobe) (*Server, *observability.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	srv := NewServer(Options{
		Addr:     ":0",
		Globe:    g,
		Gatherer: reg,
		Metrics:  metrics,
		Logger:   observability.Discard(),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx) //nolint:errcheck // never started
	})
	return srv, metrics
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGlobe{})
	rec := get(t, srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzWaitsForOverlay(t *testing.T) {
	g := &fakeGlobe{}
	srv, _ := newTestServer(t, g)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/readyz").Code)

	g.fire(globe.Snapshot{OverlayVersion: 1})
	assert.Equal(t, http.StatusOK, get(t, srv, "/readyz").Code)
}

func TestMetricsEndpointUsesGatherer(t *testing.T) {
	srv, metrics := newTestServer(t, &fakeGlobe{})
	metrics.OverlayBuilds.Inc()

	rec := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "climate_globe_overlay_builds_total 1")
}

func TestStateEndpoint(t *testing.T) {
	g := &fakeGlobe{snap: globe.Snapshot{
		Selection: globe.Selection{Region: "Asia", Metrics: core.MetricSet{Temperature: "2.6"}},
		Tier:      "severe",
	}}
	srv, _ := newTestServer(t, g)

	rec := get(t, srv, "/state")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Asia", body["region"])
	assert.Equal(t, "severe", body["tier"])
	assert.Equal(t, "2.6", body["metrics"].(map[string]any)["temperature"])
}

func TestRegionsEndpoint(t *testing.T) {
	g := &fakeGlobe{metrics: map[core.RegionID]core.MetricSet{
		"Africa": {Temperature: "1.4"},
	}}
	srv, _ := newTestServer(t, g)

	rec := get(t, srv, "/regions")
	require.Equal(t, http.StatusOK, rec.Code)

	var regions []regionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regions))
	require.Len(t, regions, len(core.RegionIDs()))
	assert.Equal(t, core.RegionID("North America"), regions[0].ID)

	for _, r := range regions {
		if r.ID != "Africa" {
			continue
		}
		assert.Equal(t, core.Bounds{X: 900, Y: 300, W: 300, H: 400}, r.Bounds)
		assert.Equal(t, "elevated", r.Tier)
		assert.InDelta(t, 37.27, r.NW.Lat, 0.01)
		assert.InDelta(t, -33.05, r.SE.Lat, 0.01)
	}
}

func TestOverlayEndpoint(t *testing.T) {
	g := &fakeGlobe{}
	srv, _ := newTestServer(t, g)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/overlay.png").Code)

	g.overlay = core.Rasterize("Europe", core.MetricSet{Temperature: "0.4"})
	rec := get(t, srv, "/overlay.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, core.OverlayWidth, core.OverlayHeight), img.Bounds())
	_, _, _, a := img.At(1050, 200).RGBA()
	assert.NotZero(t, a)
}

func TestPostSelection(t *testing.T) {
	g := &fakeGlobe{}
	srv, _ := newTestServer(t, g)

	rec := httptest.NewRecorder()
	body := `{"region":"Oceania","metrics":{"temperature":"2.1"}}`
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/selection", strings.NewReader(body)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	ups := g.updates()
	require.Len(t, ups, 1)
	assert.Equal(t, core.RegionID("Oceania"), ups[0].Region)
	assert.Equal(t, "2.1", ups[0].Metrics.Temperature)
	assert.Equal(t, globe.SourceSocket, ups[0].Source)
	assert.False(t, ups[0].MetricsOnly)
}

func TestPostSelectionRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGlobe{})

	for _, body := range []string{`{`, `{"metrics":{}}`, `{"type":"zoom","region":"Asia"}`} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/selection", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestControlMessageUpdate(t *testing.T) {
	u, err := ControlMessage{Type: "metrics", Region: "Asia", Metrics: &core.MetricSet{Temperature: "3"}}.Update(globe.SourceFeed)
	require.NoError(t, err)
	assert.True(t, u.MetricsOnly)
	assert.Equal(t, globe.SourceFeed, u.Source)

	_, err = ControlMessage{Type: "metrics", Region: "Asia"}.Update(globe.SourceFeed)
	assert.Error(t, err)

	_, err = ControlMessage{}.Update(globe.SourceFeed)
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // test timeout
	return conn
}

func TestWebSocketSendsStateOnConnect(t *testing.T) {
	g := &fakeGlobe{snap: globe.Snapshot{Selection: globe.Selection{Region: "Europe"}, OverlayVersion: 3}}
	srv, _ := newTestServer(t, g)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts)
	var msg StateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)
	assert.Equal(t, core.RegionID("Europe"), msg.State.Region)
	assert.Equal(t, 3, msg.State.OverlayVersion)
}

func TestWebSocketSubmitsSelections(t *testing.T) {
	g := &fakeGlobe{}
	srv, _ := newTestServer(t, g)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts)
	var hello StateMessage
	require.NoError(t, conn.ReadJSON(&hello))

	require.NoError(t, conn.WriteJSON(ControlMessage{Region: "Asia", Metrics: &core.MetricSet{Temperature: "2.6"}}))

	require.Eventually(t, func() bool { return len(g.updates()) == 1 }, 2*time.Second, 10*time.Millisecond)
	u := g.updates()[0]
	assert.Equal(t, core.RegionID("Asia"), u.Region)
	assert.Equal(t, globe.SourceSocket, u.Source)
}

func TestWebSocketReportsBadMessages(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGlobe{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts)
	var hello StateMessage
	require.NoError(t, conn.ReadJSON(&hello))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"spin","region":"Asia"}`)))
	var reply ErrorMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Error, "spin")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"region": 12}`)))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
}

func TestWebSocketBroadcastsChanges(t *testing.T) {
	g := &fakeGlobe{}
	srv, metrics := newTestServer(t, g)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	a := dial(t, ts)
	b := dial(t, ts)
	var hello StateMessage
	require.NoError(t, a.ReadJSON(&hello))
	require.NoError(t, b.ReadJSON(&hello))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.WebsocketClients) == 2
	}, 2*time.Second, 10*time.Millisecond)

	g.fire(globe.Snapshot{Selection: globe.Selection{Region: "Oceania"}, Tier: "severe"})

	for _, conn := range []*websocket.Conn{a, b} {
		var msg StateMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, core.RegionID("Oceania"), msg.State.Region)
		assert.Equal(t, "severe", msg.State.Tier)
	}
}
