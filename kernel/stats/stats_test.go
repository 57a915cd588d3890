package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersSnapshotReflectsAdds(t *testing.T) {
	c := New()

	c.ContextSwitches.Add(1)
	c.TimerTicks.Add(1)
	c.Rendezvous.Add(2)
	c.NotificationsSent.Add(1)
	c.Aborted.Add(1)
	c.WouldBlock.Add(1)

	snap := c.Snapshot()
	require.Equal(t, uint64(1), snap.ContextSwitches)
	require.Equal(t, uint64(1), snap.TimerTicks)
	require.Equal(t, uint64(2), snap.Rendezvous)
	require.Equal(t, uint64(1), snap.NotificationsSent)
	require.Equal(t, uint64(1), snap.Aborted)
	require.Equal(t, uint64(1), snap.WouldBlock)
}

func TestNewCountersStartsAtZero(t *testing.T) {
	require.Equal(t, Snapshot{}, New().Snapshot())
}
