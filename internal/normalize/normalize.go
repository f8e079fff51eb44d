// Package normalize converts a raw collector snapshot into the Blackbox
// ingest batch schema. Pure transform aside from the clock and the fresh
// batch id.
package normalize

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

// Normalize builds an ingest batch from a raw snapshot. Every event in the
// batch carries the same capture timestamp so downstream consumers can
// correlate categories from one cycle. Events for list-typed categories are
// omitted entirely when the underlying list is empty; only the system event
// is unconditional.
func Normalize(raw models.RawSnapshot, agentID, sourceID string) models.Batch {
	ts := time.Now().UTC().Format(time.RFC3339Nano)

	hostname := raw.Hostname
	if hostname == "" {
		hostname = "unknown"
	}

	var ramPct *float64
	if raw.Memory != nil {
		pct := raw.Memory.Percent
		ramPct = &pct
	}

	events := []models.Event{{
		Type:      models.EventSystem,
		Timestamp: ts,
		Data: models.SystemData{
			Hostname:   hostname,
			OS:         raw.OS.System,
			OSVersion:  raw.OS.Version,
			OSRelease:  raw.OS.Release,
			Machine:    raw.OS.Machine,
			Username:   raw.Username,
			UptimeSecs: raw.UptimeSecs,
			CPUPercent: raw.CPUPercent,
			RAMPercent: ramPct,
			Memory:     raw.Memory,
		},
	}}

	if len(raw.Processes) > 0 {
		events = append(events, models.Event{
			Type:      models.EventProcesses,
			Timestamp: ts,
			Data: models.ProcessesData{
				Count: len(raw.Processes),
				Top:   raw.Processes,
			},
		})
	}

	if raw.Network != nil {
		events = append(events, models.Event{
			Type:      models.EventNetwork,
			Timestamp: ts,
			Data: models.NetworkData{
				Summary: []models.NetworkSummary{*raw.Network},
			},
		})
	}

	if len(raw.Disks) > 0 {
		events = append(events, models.Event{
			Type:      models.EventDiskUsage,
			Timestamp: ts,
			Data: models.DiskUsageData{
				Count:   len(raw.Disks),
				Volumes: raw.Disks,
			},
		})
	}

	if len(raw.OpenPorts) > 0 {
		events = append(events, models.Event{
			Type:      models.EventOpenPorts,
			Timestamp: ts,
			Data: models.OpenPortsData{
				Count: len(raw.OpenPorts),
				Ports: raw.OpenPorts,
			},
		})
	}

	return models.Batch{
		Events:       events,
		SourceID:     sourceID,
		AgentID:      agentID,
		EndpointName: hostname,
		BatchID:      uuid.NewString(),
		Timestamp:    ts,
	}
}
