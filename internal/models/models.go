// Package models defines the telemetry data structures used throughout the
// agent. These structures are serialized to JSON for transmission to the
// Blackbox ingest API.
package models

// EventType identifies the category of a telemetry event.
type EventType string

// Event categories, in the order they appear within a batch.
const (
	EventSystem    EventType = "system"
	EventProcesses EventType = "processes"
	EventNetwork   EventType = "network"
	EventDiskUsage EventType = "disk_usage"
	EventOpenPorts EventType = "open_ports"
)

// OSInfo describes the operating system the agent is running on.
type OSInfo struct {
	System  string `json:"system"`
	Release string `json:"release"`
	Version string `json:"version"`
	Machine string `json:"machine"`
}

// MemoryStats holds physical memory usage. Used is total minus available,
// so reclaimable-but-in-use memory (caches) counts as used correctly.
type MemoryStats struct {
	TotalBytes uint64  `json:"total_bytes"`
	UsedBytes  uint64  `json:"used_bytes"`
	Percent    float64 `json:"percent"`
}

// ProcessSample is one entry of the top-N process listing. CPU and memory
// percentages are pointers because some platforms only expose a KB figure.
type ProcessSample struct {
	PID        int32    `json:"pid"`
	CPUPercent *float64 `json:"cpu_percent,omitempty"`
	MemPercent *float64 `json:"mem_percent,omitempty"`
	MemKB      *uint64  `json:"mem_kb,omitempty"`
	Name       string   `json:"name"`
}

// NetworkSummary counts connections by coarse state.
type NetworkSummary struct {
	Listening   int `json:"listening"`
	Established int `json:"established"`
}

// DiskVolume is usage for a single mounted volume. Volumes reporting zero
// total bytes are never emitted.
type DiskVolume struct {
	Mount      string  `json:"mount"`
	TotalBytes uint64  `json:"total_bytes"`
	UsedBytes  uint64  `json:"used_bytes"`
	FreeBytes  uint64  `json:"free_bytes"`
	Percent    float64 `json:"percent"`
}

// OpenPort is a single listening socket, with process attribution where the
// platform allows it.
type OpenPort struct {
	Proto   string `json:"proto"`
	Address string `json:"address"`
	Port    int    `json:"port"`
	PID     *int32 `json:"pid,omitempty"`
	State   string `json:"state"`
	Process string `json:"process,omitempty"`
}

// RawSnapshot is the output of one collection pass. Every field is
// independently optional: a failed probe leaves its field nil/empty and
// never invalidates the rest of the snapshot.
type RawSnapshot struct {
	Hostname   string
	OS         OSInfo
	Username   string
	UptimeSecs *float64
	CPUPercent *float64
	Memory     *MemoryStats
	Processes  []ProcessSample
	Network    *NetworkSummary
	Disks      []DiskVolume
	OpenPorts  []OpenPort
}

// Event is one typed telemetry record within a batch. All events in a batch
// share the same capture timestamp.
type Event struct {
	Type      EventType   `json:"event_type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// SystemData is the payload of the always-present system event.
type SystemData struct {
	Hostname   string       `json:"hostname"`
	OS         string       `json:"os"`
	OSVersion  string       `json:"os_version"`
	OSRelease  string       `json:"os_release"`
	Machine    string       `json:"machine"`
	Username   string       `json:"username"`
	UptimeSecs *float64     `json:"uptime_secs"`
	CPUPercent *float64     `json:"cpu_percent"`
	RAMPercent *float64     `json:"ram_percent"`
	Memory     *MemoryStats `json:"memory"`
}

// ProcessesData is the payload of the processes event.
type ProcessesData struct {
	Count int             `json:"count"`
	Top   []ProcessSample `json:"top"`
}

// NetworkData is the payload of the network event.
type NetworkData struct {
	Summary []NetworkSummary `json:"summary"`
}

// DiskUsageData is the payload of the disk_usage event.
type DiskUsageData struct {
	Count   int          `json:"count"`
	Volumes []DiskVolume `json:"volumes"`
}

// OpenPortsData is the payload of the open_ports event.
type OpenPortsData struct {
	Count int        `json:"count"`
	Ports []OpenPort `json:"ports"`
}

// Batch is the payload sent to the API via POST /api/v1/ingest.
// Constructed once per cycle, sent, and discarded.
type Batch struct {
	Events       []Event `json:"events"`
	SourceID     string  `json:"source_id"`
	AgentID      string  `json:"agent_id"`
	EndpointName string  `json:"endpoint_name"`
	BatchID      string  `json:"batch_id"`
	Timestamp    string  `json:"timestamp"`
}
