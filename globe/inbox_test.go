package globe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climateglobe/core"
)

func sel(region core.RegionID, temp string) Selection {
	return Selection{Region: region, Metrics: core.MetricSet{Temperature: temp}}
}

func TestInboxLatestWins(t *testing.T) {
	in := NewInbox(2)

	assert.True(t, in.Submit(Update{Selection: sel("Asia", "1")}))
	assert.True(t, in.Submit(Update{Selection: sel("Europe", "2")}))
	assert.False(t, in.Submit(Update{Selection: sel("Africa", "3")}))

	u, ok := in.Drain()
	require.True(t, ok)
	assert.Equal(t, core.RegionID("Africa"), u.Region)
	assert.EqualValues(t, 1, in.Dropped())

	_, ok = in.Drain()
	assert.False(t, ok)
}

func TestInboxMetricsOnlyBypassesQueue(t *testing.T) {
	in := NewInbox(1)

	in.Submit(Update{Selection: sel("Asia", "0.5"), MetricsOnly: true})
	in.Submit(Update{Selection: sel("Asia", "2.5"), MetricsOnly: true})
	in.Submit(Update{Selection: sel("Oceania", "1.5"), MetricsOnly: true})
	in.Submit(Update{Selection: sel("Europe", "0.1")})

	pending := in.TakeMetrics()
	require.Len(t, pending, 2)
	assert.Equal(t, "2.5", pending["Asia"].Metrics.Temperature)
	assert.Equal(t, "1.5", pending["Oceania"].Metrics.Temperature)
	assert.Nil(t, in.TakeMetrics())

	u, ok := in.Drain()
	require.True(t, ok)
	assert.Equal(t, core.RegionID("Europe"), u.Region)
	assert.Zero(t, in.Dropped())
}

func TestInboxConcurrentSubmit(t *testing.T) {
	in := NewInbox(4)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				in.Submit(Update{Selection: sel("Asia", "1")})
			}
		}()
	}
	wg.Wait()

	u, ok := in.Drain()
	require.True(t, ok)
	assert.Equal(t, core.RegionID("Asia"), u.Region)
	assert.EqualValues(t, 800-4, in.Dropped())
}

func TestMetricTable(t *testing.T) {
	table := NewMetricTable(map[core.RegionID]core.MetricSet{
		"Asia": {Temperature: "2.6"},
	})

	assert.Equal(t, "2.6", table.Get("Asia").Temperature)
	assert.Equal(t, core.MetricSet{}, table.Get("Europe"))

	table.Put("Europe", core.MetricSet{Temperature: "1.2"})
	snap := table.Snapshot()
	assert.Len(t, snap, 2)

	snap["Asia"] = core.MetricSet{}
	assert.Equal(t, "2.6", table.Get("Asia").Temperature)
}
