package stats_test

import (
	"testing"

	"duskos/stats"

	"github.com/stretchr/testify/require"
)

func TestCounterIncAndAdd(t *testing.T) {
	var c stats.Counter_t
	c.Inc()
	c.Add(4)
	require.Equal(t, int64(5), c.Get())
}

func TestStats2StringListsEveryCounterField(t *testing.T) {
	v := &stats.VM{}
	v.PageFaults.Inc()
	v.Evictions.Add(2)

	s := stats.Stats2String(v)
	require.Contains(t, s, "PageFaults: 1")
	require.Contains(t, s, "Evictions: 2")
	require.Contains(t, s, "MunmapCalls: 0")
}

func TestProfileIncludesCountersAndGauges(t *testing.T) {
	v := &stats.VM{}
	v.PageFaults.Add(3)
	gauges := []stats.Gauge{{Name: "frames", InUse: 2, Capacity: 8}}

	p := stats.Profile(v, gauges)
	require.NotEmpty(t, p.Sample)

	var sawPageFaults, sawFramesInUse bool
	for _, s := range p.Sample {
		if kind, ok := s.Label["kind"]; ok && len(kind) == 1 {
			switch kind[0] {
			case "page_faults":
				sawPageFaults = true
				require.Equal(t, []int64{3}, s.Value)
			case "frames_in_use":
				sawFramesInUse = true
				require.Equal(t, []int64{2}, s.Value)
			}
		}
	}
	require.True(t, sawPageFaults)
	require.True(t, sawFramesInUse)
}
