package globe

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"climateglobe/animation"
	"climateglobe/core"
	"climateglobe/observability"
	"climateglobe/rendering"
)

// DefaultInboxSize is how many selection changes may queue between frames
const DefaultInboxSize = 16

// Options configures a Controller
type Options struct {
	Uploader rendering.TextureUploader
	Base     rendering.BaseTextures
	Camera   *rendering.Camera
	Lights   *rendering.LightingRig

	RotationRate float64
	Clock        clockwork.Clock
	InboxSize    int

	Initial Selection
	Seed    map[core.RegionID]core.MetricSet

	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Snapshot is the externally visible state of the globe
type Snapshot struct {
	Selection
	Tier           string    `json:"tier"`
	Highlighted    bool      `json:"highlighted"`
	OverlayVersion int       `json:"overlayVersion"`
	OverlayBuilds  int       `json:"overlayBuilds"`
	Source         Source    `json:"source"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Controller ties the overlay pipeline to the render loop. Frame, Apply and
// Close must run on the render goroutine; Submit, SelectRegion, CycleRegion,
// Snapshot and Overlay are safe from any goroutine.
type Controller struct {
	inbox      *Inbox
	table      *MetricTable
	cache      *core.OverlayCache
	compositor *rendering.Compositor
	state      *rendering.RenderState
	base       rendering.BaseTextures

	rotation *animation.Rotation
	clock    *animation.FrameClock
	camera   *rendering.Camera
	lights   rendering.LightingRig

	metrics *observability.Metrics
	logger  *slog.Logger

	// render goroutine only
	current    Selection
	composited bool

	mu        sync.RWMutex
	snapshot  Snapshot
	overlay   *image.RGBA
	requested core.RegionID
	listeners []func(Snapshot)
}

var errNoUploader = errors.New("globe: texture uploader is required")

// NewController builds the controller and composites the initial selection
func NewController(opts Options) (*Controller, error) {
	if opts.Uploader == nil {
		return nil, errNoUploader
	}
	if opts.Camera == nil {
		opts.Camera = rendering.NewCamera(rendering.DefaultCameraSettings())
	}
	lights := rendering.DefaultLighting()
	if opts.Lights != nil {
		lights = *opts.Lights
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Initial.Region == "" {
		opts.Initial.Region = core.Global
	}

	c := &Controller{
		inbox:      NewInbox(opts.InboxSize),
		table:      NewMetricTable(opts.Seed),
		cache:      core.NewOverlayCache(),
		compositor: rendering.NewCompositor(opts.Uploader),
		state:      rendering.NewRenderState(),
		base:       opts.Base,
		rotation:   animation.NewRotation(opts.RotationRate),
		clock:      animation.NewFrameClock(opts.Clock),
		camera:     opts.Camera,
		lights:     lights,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}

	initial := c.withStoredMetrics(opts.Initial)
	if initial.Metrics != (core.MetricSet{}) {
		c.table.Put(initial.Region, initial.Metrics)
	}
	c.requested = initial.Region
	if _, err := c.Apply(initial, SourceConfig); err != nil {
		return nil, err
	}
	return c, nil
}

// Submit queues a selection change for the next frame
func (c *Controller) Submit(u Update) {
	if !u.MetricsOnly {
		c.mu.Lock()
		c.requested = u.Region
		c.mu.Unlock()
	}
	if !c.inbox.Submit(u) {
		c.metrics.InboxDropped.Inc()
	}
}

// SelectRegion highlights a region with its stored metrics
func (c *Controller) SelectRegion(id core.RegionID) {
	c.Submit(Update{Selection: Selection{Region: id, Metrics: c.table.Get(id)}, Source: SourceViewport})
}

// CycleRegion moves the selection step places through Global followed by
// the registered regions, wrapping at both ends.
func (c *Controller) CycleRegion(step int) {
	order := append([]core.RegionID{core.Global}, core.RegionIDs()...)

	c.mu.RLock()
	from := c.requested
	c.mu.RUnlock()

	idx := 0
	for i, id := range order {
		if id == from {
			idx = i
			break
		}
	}
	n := len(order)
	next := ((idx+step)%n + n) % n
	c.SelectRegion(order[next])
}

// Frame applies queued changes, advances the animation and returns what the
// backend should draw.
func (c *Controller) Frame() rendering.Frame {
	c.drain()

	dt := c.clock.Tick()
	if dt > 0 {
		c.metrics.FrameSeconds.Observe(dt.Seconds())
	}
	c.rotation.Advance(dt)
	c.camera.Update(dt)

	scale := core.ColorForText(c.current.Metrics.Temperature)
	_, drawable := core.LookupRegion(c.current.Region)
	return rendering.Frame{
		State:      c.state,
		GlobeAngle: c.rotation.Globe(),
		CloudAngle: c.rotation.Clouds(),
		Camera:     c.camera,
		Lights:     c.lights,
		Legend: rendering.Legend{
			Region:      c.current.Region,
			Scale:       scale,
			Highlighted: drawable,
			Zoom:        float32(c.camera.ZoomFraction()),
		},
	}
}

func (c *Controller) drain() {
	next := c.current
	source := Source("")

	for id, u := range c.inbox.TakeMetrics() {
		c.table.Put(id, u.Metrics)
		if id == next.Region {
			next.Metrics = u.Metrics
			source = u.Source
		}
	}

	if u, ok := c.inbox.Drain(); ok {
		sel := c.withStoredMetrics(u.Selection)
		if u.Metrics != (core.MetricSet{}) {
			c.table.Put(sel.Region, sel.Metrics)
		}
		next = sel
		source = u.Source
	}

	if source == "" {
		return
	}
	if _, err := c.Apply(next, source); err != nil {
		c.logger.Error("selection not applied", "region", next.Region, "source", source, "error", err)
	}
}

// withStoredMetrics fills an empty metric set from the table
func (c *Controller) withStoredMetrics(sel Selection) Selection {
	if sel.Metrics == (core.MetricSet{}) {
		sel.Metrics = c.table.Get(sel.Region)
	}
	return sel
}

// Apply makes sel the current selection. It rebuilds and uploads the overlay
// only when the region or temperature changed, and reports whether anything
// changed at all.
func (c *Controller) Apply(sel Selection, source Source) (bool, error) {
	if c.composited && sel == c.current {
		return false, nil
	}

	start := c.clock.Now()
	overlay, rebuilt := c.cache.Get(sel.Region, sel.Metrics)
	if rebuilt || !c.composited {
		if err := c.compositor.Composite(c.state, c.base, overlay); err != nil {
			c.composited = false
			c.metrics.OverlayUploadErrors.Inc()
			return false, fmt.Errorf("apply %q: %w", sel.Region, err)
		}
		c.composited = true
		c.metrics.OverlayBuilds.Inc()
		c.metrics.OverlayBuildSeconds.Observe(c.clock.Since(start).Seconds())
		c.logger.Debug("overlay composited", "region", sel.Region, "temperature", sel.Metrics.Temperature, "version", c.state.OverlayVersion)
	}

	c.current = sel
	c.metrics.SelectionUpdates.WithLabelValues(string(source)).Inc()

	_, drawable := core.LookupRegion(sel.Region)
	snap := Snapshot{
		Selection:      sel,
		Tier:           core.ColorForText(sel.Metrics.Temperature).Tier.String(),
		Highlighted:    drawable,
		OverlayVersion: c.state.OverlayVersion,
		OverlayBuilds:  c.cache.Builds(),
		Source:         source,
		UpdatedAt:      c.clock.Now(),
	}

	c.mu.Lock()
	c.snapshot = snap
	c.overlay = overlay
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return true, nil
}

// OnChange registers fn to run after each applied change. fn runs on the
// render goroutine and must not block.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Snapshot returns the current selection state
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Overlay returns the current overlay buffer. Buffers are never modified
// after they are built, so callers may read it freely but must not write.
func (c *Controller) Overlay() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overlay
}

// Metrics returns the per-region metric table
func (c *Controller) Metrics() map[core.RegionID]core.MetricSet {
	return c.table.Snapshot()
}

// State exposes the render state for backends and tests
func (c *Controller) State() *rendering.RenderState {
	return c.state
}

// Close releases the overlay texture
func (c *Controller) Close() {
	c.compositor.Release(c.state)
}
