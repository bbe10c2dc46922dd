package globe

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climateglobe/core"
	"climateglobe/observability"
	"climateglobe/rendering"
)

type fakeUploader struct {
	next     uint32
	live     map[uint32]bool
	released []uint32
	fail     bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{live: make(map[uint32]bool)}
}

func (f *fakeUploader) Upload(img *image.RGBA) (rendering.Texture, error) {
	if f.fail {
		return rendering.Texture{}, errors.New("device lost")
	}
	f.next++
	f.live[f.next] = true
	b := img.Bounds()
	return rendering.Texture{ID: f.next, Width: b.Dx(), Height: b.Dy()}, nil
}

func (f *fakeUploader) Release(tex rendering.Texture) {
	delete(f.live, tex.ID)
	f.released = append(f.released, tex.ID)
}

type fixture struct {
	ctrl    *Controller
	up      *fakeUploader
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
}

func newFixture(t *testing.T, initial Selection) fixture {
	t.Helper()
	f := fixture{
		up:      newFakeUploader(),
		clock:   clockwork.NewFakeClock(),
		metrics: observability.NewMetricsForTesting(),
	}
	ctrl, err := NewController(Options{
		Uploader:     f.up,
		Base:         rendering.BaseTextures{Diffuse: rendering.Texture{ID: 900}},
		RotationRate: 0.05,
		Clock:        f.clock,
		Initial:      initial,
		Seed: map[core.RegionID]core.MetricSet{
			"Europe": {Temperature: "1.5"},
		},
		Metrics: f.metrics,
		Logger:  observability.Discard(),
	})
	require.NoError(t, err)
	f.ctrl = ctrl
	return f
}

func TestNewControllerCompositesInitial(t *testing.T) {
	f := newFixture(t, sel("Asia", "2.6"))

	snap := f.ctrl.Snapshot()
	assert.Equal(t, core.RegionID("Asia"), snap.Region)
	assert.Equal(t, "severe", snap.Tier)
	assert.True(t, snap.Highlighted)
	assert.Equal(t, 1, snap.OverlayVersion)
	assert.Equal(t, SourceConfig, snap.Source)

	state := f.ctrl.State()
	assert.Equal(t, uint32(900), state.Globe.Map.ID)
	assert.True(t, state.Globe.EmissiveMap.Valid())
	assert.NotNil(t, f.ctrl.Overlay())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OverlayBuilds))
}

func TestNewControllerDefaultsToGlobal(t *testing.T) {
	f := newFixture(t, Selection{})
	snap := f.ctrl.Snapshot()
	assert.Equal(t, core.Global, snap.Region)
	assert.False(t, snap.Highlighted)
	assert.Equal(t, "nominal", snap.Tier)
}

func TestNewControllerRequiresUploader(t *testing.T) {
	_, err := NewController(Options{})
	assert.Error(t, err)
}

func TestNewControllerUploadFailure(t *testing.T) {
	up := newFakeUploader()
	up.fail = true
	_, err := NewController(Options{Uploader: up, Logger: observability.Discard()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")
}

func TestApplyIsNoOpForSameSelection(t *testing.T) {
	f := newFixture(t, sel("Asia", "2.6"))

	changed, err := f.ctrl.Apply(sel("Asia", "2.6"), SourceSocket)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, f.ctrl.Snapshot().OverlayVersion)
}

func TestApplyKeepsOverlayWhenOnlyTextChanges(t *testing.T) {
	f := newFixture(t, sel("Asia", "2.6"))

	next := Selection{Region: "Asia", Metrics: core.MetricSet{Temperature: "2.6", SeaLevel: "+3mm"}}
	changed, err := f.ctrl.Apply(next, SourceSocket)
	require.NoError(t, err)
	assert.True(t, changed)

	snap := f.ctrl.Snapshot()
	assert.Equal(t, "+3mm", snap.Metrics.SeaLevel)
	assert.Equal(t, 1, snap.OverlayVersion)
	assert.Equal(t, 1, snap.OverlayBuilds)
}

func TestApplyRebuildsAndReleasesPrevious(t *testing.T) {
	f := newFixture(t, sel("Asia", "2.6"))
	first := f.ctrl.State().Globe.EmissiveMap

	changed, err := f.ctrl.Apply(sel("Europe", "0.4"), SourceSocket)
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, []uint32{first.ID}, f.up.released)
	assert.Len(t, f.up.live, 1)

	snap := f.ctrl.Snapshot()
	assert.Equal(t, 2, snap.OverlayVersion)
	assert.Equal(t, "nominal", snap.Tier)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SelectionUpdates.WithLabelValues("ws")))
}

func TestApplyFailureRetriesOnNextAttempt(t *testing.T) {
	f := newFixture(t, sel("Asia", "2.6"))
	before := f.ctrl.State().Globe.EmissiveMap

	f.up.fail = true
	_, err := f.ctrl.Apply(sel("Africa", "1.5"), SourceFeed)
	require.Error(t, err)
	assert.Equal(t, before, f.ctrl.State().Globe.EmissiveMap)
	assert.Equal(t, core.RegionID("Asia"), f.ctrl.Snapshot().Region)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OverlayUploadErrors))

	f.up.fail = false
	changed, err := f.ctrl.Apply(sel("Africa", "1.5"), SourceFeed)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, before, f.ctrl.State().Globe.EmissiveMap)
}

func TestOnChangeNotifies(t *testing.T) {
	f := newFixture(t, Selection{})
	var got []Snapshot
	f.ctrl.OnChange(func(s Snapshot) { got = append(got, s) })

	_, err := f.ctrl.Apply(sel("Oceania", "3"), SourceSocket)
	require.NoError(t, err)
	_, err = f.ctrl.Apply(sel("Oceania", "3"), SourceSocket)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, core.RegionID("Oceania"), got[0].Region)
	assert.Equal(t, SourceSocket, got[0].Source)
}

func TestFrameDrainsInboxAndAdvancesRotation(t *testing.T) {
	f := newFixture(t, Selection{})

	frame := f.ctrl.Frame()
	assert.Zero(t, frame.GlobeAngle)

	f.ctrl.Submit(Update{Selection: sel("Asia", "1.5"), Source: SourceSocket})
	f.ctrl.Submit(Update{Selection: sel("Africa", "2.5"), Source: SourceSocket})
	f.clock.Advance(2 * time.Second)
	frame = f.ctrl.Frame()

	assert.Equal(t, core.RegionID("Africa"), frame.Legend.Region)
	assert.Equal(t, core.TierSevere, frame.Legend.Scale.Tier)
	assert.True(t, frame.Legend.Highlighted)
	assert.InDelta(t, 0.1, frame.GlobeAngle, 1e-9)
	assert.InDelta(t, 0.14, frame.CloudAngle, 1e-9)
	assert.Same(t, f.ctrl.State(), frame.State)
	assert.False(t, math.IsNaN(float64(frame.Legend.Zoom)))

	// Asia was superseded before any frame ran, so only one rebuild happened
	assert.Equal(t, 2, f.ctrl.Snapshot().OverlayBuilds)
}

func TestFrameAppliesMetricsForCurrentRegion(t *testing.T) {
	f := newFixture(t, sel("Asia", "0.5"))

	f.ctrl.Submit(Update{Selection: sel("Europe", "2.9"), Source: SourceFeed, MetricsOnly: true})
	f.ctrl.Frame()
	assert.Equal(t, core.RegionID("Asia"), f.ctrl.Snapshot().Region)
	assert.Equal(t, "2.9", f.ctrl.Metrics()["Europe"].Temperature)

	f.ctrl.Submit(Update{Selection: sel("Asia", "2.2"), Source: SourceFeed, MetricsOnly: true})
	f.ctrl.Frame()
	snap := f.ctrl.Snapshot()
	assert.Equal(t, "2.2", snap.Metrics.Temperature)
	assert.Equal(t, "severe", snap.Tier)
	assert.Equal(t, SourceFeed, snap.Source)
}

func TestSelectRegionUsesStoredMetrics(t *testing.T) {
	f := newFixture(t, Selection{})

	f.ctrl.SelectRegion("Europe")
	f.ctrl.Frame()

	snap := f.ctrl.Snapshot()
	assert.Equal(t, core.RegionID("Europe"), snap.Region)
	assert.Equal(t, "1.5", snap.Metrics.Temperature)
	assert.Equal(t, "elevated", snap.Tier)
	assert.Equal(t, SourceViewport, snap.Source)
}

func TestCycleRegionWraps(t *testing.T) {
	f := newFixture(t, Selection{})

	f.ctrl.CycleRegion(1)
	f.ctrl.Frame()
	assert.Equal(t, core.RegionID("North America"), f.ctrl.Snapshot().Region)

	f.ctrl.CycleRegion(1)
	f.ctrl.CycleRegion(1)
	f.ctrl.Frame()
	assert.Equal(t, core.RegionID("Asia"), f.ctrl.Snapshot().Region)

	f.ctrl.CycleRegion(-4)
	f.ctrl.Frame()
	assert.Equal(t, core.RegionID("Oceania"), f.ctrl.Snapshot().Region)
}

func TestCloseReleasesOverlay(t *testing.T) {
	f := newFixture(t, sel("Asia", "2.6"))
	f.ctrl.Close()
	assert.Empty(t, f.up.live)
	assert.False(t, f.ctrl.State().Globe.EmissiveMap.Valid())
}
