package normalize

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

func fullSnapshot() models.RawSnapshot {
	cpu := 12.5
	uptime := 3600.0
	pid := int32(42)
	return models.RawSnapshot{
		Hostname:   "web-01",
		OS:         models.OSInfo{System: "linux", Release: "6.1.0", Version: "12", Machine: "x86_64"},
		Username:   "svc-agent",
		UptimeSecs: &uptime,
		CPUPercent: &cpu,
		Memory:     &models.MemoryStats{TotalBytes: 1 << 30, UsedBytes: 1 << 29, Percent: 50.0},
		Processes:  []models.ProcessSample{{PID: 1, Name: "systemd"}},
		Network:    &models.NetworkSummary{Listening: 3, Established: 7},
		Disks:      []models.DiskVolume{{Mount: "/", TotalBytes: 100, UsedBytes: 40, FreeBytes: 60, Percent: 40.0}},
		OpenPorts:  []models.OpenPort{{Proto: "TCP", Address: "0.0.0.0", Port: 22, PID: &pid, State: "LISTEN"}},
	}
}

func TestNormalize_FullSnapshotOrderAndSharedTimestamp(t *testing.T) {
	batch := Normalize(fullSnapshot(), "agent-1", "agent-1:web-01")

	require.Len(t, batch.Events, 5)
	want := []models.EventType{
		models.EventSystem,
		models.EventProcesses,
		models.EventNetwork,
		models.EventDiskUsage,
		models.EventOpenPorts,
	}
	for i, ev := range batch.Events {
		assert.Equal(t, want[i], ev.Type)
		assert.Equal(t, batch.Timestamp, ev.Timestamp, "event %s timestamp differs from batch", ev.Type)
	}

	assert.Equal(t, "agent-1", batch.AgentID)
	assert.Equal(t, "agent-1:web-01", batch.SourceID)
	assert.Equal(t, "web-01", batch.EndpointName)
}

func TestNormalize_EmptyListsOmitEvents(t *testing.T) {
	raw := models.RawSnapshot{Hostname: "bare-host"}

	batch := Normalize(raw, "agent-1", "src")

	require.Len(t, batch.Events, 1)
	assert.Equal(t, models.EventSystem, batch.Events[0].Type)
}

func TestNormalize_EmptyNetworkSummaryStillEmitted(t *testing.T) {
	// A present-but-zero summary is data ("nothing listening"), unlike a
	// failed probe which leaves the field nil.
	raw := models.RawSnapshot{
		Hostname: "h",
		Network:  &models.NetworkSummary{},
	}

	batch := Normalize(raw, "a", "s")

	require.Len(t, batch.Events, 2)
	assert.Equal(t, models.EventNetwork, batch.Events[1].Type)
}

func TestNormalize_FreshBatchIDPerCall(t *testing.T) {
	raw := fullSnapshot()

	b1 := Normalize(raw, "agent-1", "src")
	b2 := Normalize(raw, "agent-1", "src")

	_, err := uuid.Parse(b1.BatchID)
	require.NoError(t, err)
	assert.NotEqual(t, b1.BatchID, b2.BatchID)

	// Same input, same event content.
	require.Len(t, b2.Events, len(b1.Events))
	for i := range b1.Events {
		assert.Equal(t, b1.Events[i].Type, b2.Events[i].Type)
		assert.Equal(t, b1.Events[i].Data, b2.Events[i].Data)
	}
}

func TestNormalize_MissingHostnameFallsBack(t *testing.T) {
	batch := Normalize(models.RawSnapshot{}, "a", "s")

	assert.Equal(t, "unknown", batch.EndpointName)
	sys, ok := batch.Events[0].Data.(models.SystemData)
	require.True(t, ok)
	assert.Equal(t, "unknown", sys.Hostname)
}
