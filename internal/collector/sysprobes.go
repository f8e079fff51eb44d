package collector

import (
	"context"
	"errors"
	"os"
	"os/user"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gopsnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

// pseudoFSTypes contains filesystem types excluded from disk metrics:
// virtual/system filesystems and network/remote filesystems that don't
// represent local storage devices.
var pseudoFSTypes = map[string]bool{
	// Virtual / system filesystems
	"devfs":         true,
	"autofs":        true,
	"nullfs":        true,
	"tmpfs":         true,
	"sysfs":         true,
	"proc":          true,
	"procfs":        true,
	"devtmpfs":      true,
	"cgroup":        true,
	"cgroup2":       true,
	"overlay":       true,
	"squashfs":      true,
	"fuse.snapfuse": true,
	"nsfs":          true,
	"pstore":        true,
	"debugfs":       true,
	"tracefs":       true,
	"securityfs":    true,
	"configfs":      true,
	"fusectl":       true,
	"mqueue":        true,
	"hugetlbfs":     true,
	"binfmt_misc":   true,
	"efivarfs":      true,
	"bpf":           true,
	"ramfs":         true,

	// Network / remote filesystems
	"nfs":          true,
	"nfs4":         true,
	"cifs":         true,
	"smbfs":        true,
	"fuse.sshfs":   true,
	"fuse.rclone":  true,
	"9p":           true,
	"glusterfs":    true,
	"lustre":       true,
	"ceph":         true,
	"fuse.ceph":    true,
	"fuse.s3fs":    true,
	"fuse.gcsfuse": true,
	"davfs2":       true,
}

// errNoCPUData is returned when the platform reports zero aggregate CPU
// entries.
var errNoCPUData = errors.New("no aggregate cpu times reported")

// SysProbes is the gopsutil-backed Probes implementation. gopsutil performs
// the per-OS dispatch internally, so one implementation conforms on every
// supported OS family.
type SysProbes struct{}

// NewSysProbes returns the live-system probe set.
func NewSysProbes() *SysProbes {
	return &SysProbes{}
}

// Hostname returns the current hostname. Re-read on every call so hostname
// changes during a run (DHCP, VM migration) are picked up.
func (p *SysProbes) Hostname() (string, error) {
	return os.Hostname()
}

// Username returns the user the agent runs as, falling back to environment
// variables when the account lookup fails (common in minimal containers).
func (p *SysProbes) Username() (string, error) {
	u, err := user.Current()
	if err == nil {
		return u.Username, nil
	}
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	return "", err
}

// OSInfo returns the OS descriptor.
func (p *SysProbes) OSInfo(ctx context.Context) (models.OSInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return models.OSInfo{}, err
	}
	return models.OSInfo{
		System:  info.OS,
		Release: info.KernelVersion,
		Version: info.PlatformVersion,
		Machine: info.KernelArch,
	}, nil
}

// UptimeSecs returns seconds since boot.
func (p *SysProbes) UptimeSecs(ctx context.Context) (float64, error) {
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return float64(uptime), nil
}

// CPUTicks returns the cumulative idle and total CPU tick counters across
// all cores. The caller computes usage as a delta between successive reads.
func (p *SysProbes) CPUTicks(ctx context.Context) (CPUTicks, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return CPUTicks{}, err
	}
	if len(times) == 0 {
		return CPUTicks{}, errNoCPUData
	}
	t := times[0]
	return CPUTicks{
		Idle:  t.Idle,
		Total: t.Total(),
	}, nil
}

// Memory returns total and available physical memory. Available is used
// rather than free so reclaimable caches count toward headroom.
func (p *SysProbes) Memory(ctx context.Context) (MemSample, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemSample{}, err
	}
	return MemSample{
		Total:     v.Total,
		Available: v.Available,
	}, nil
}

// Processes lists all processes with CPU and memory percentages. Individual
// process errors are skipped so one inaccessible process cannot fail the
// listing.
func (p *SysProbes) Processes(ctx context.Context) ([]models.ProcessSample, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	samples := make([]models.ProcessSample, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		sample := models.ProcessSample{
			PID:  proc.Pid,
			Name: name,
		}
		if cpuPct, err := proc.CPUPercentWithContext(ctx); err == nil {
			sample.CPUPercent = &cpuPct
		}
		if memPct, err := proc.MemoryPercentWithContext(ctx); err == nil {
			v := float64(memPct)
			sample.MemPercent = &v
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// Connections lists TCP connections with their local address and state.
func (p *SysProbes) Connections(ctx context.Context) ([]ConnSample, error) {
	conns, err := gopsnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, err
	}

	samples := make([]ConnSample, 0, len(conns))
	for _, conn := range conns {
		samples = append(samples, ConnSample{
			Address: conn.Laddr.IP,
			Port:    int(conn.Laddr.Port),
			PID:     conn.Pid,
			State:   conn.Status,
		})
	}
	return samples, nil
}

// Disks returns usage for mounted partitions, skipping pseudo and network
// filesystems. Inaccessible partitions are skipped silently.
func (p *SysProbes) Disks(ctx context.Context) ([]DiskSample, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	var samples []DiskSample
	for _, part := range partitions {
		if pseudoFSTypes[part.Fstype] {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			continue
		}
		samples = append(samples, DiskSample{
			Mount: part.Mountpoint,
			Total: usage.Total,
			Used:  usage.Used,
			Free:  usage.Free,
		})
	}
	return samples, nil
}

// ProcessName resolves a PID to its process name for open-port attribution.
func (p *SysProbes) ProcessName(ctx context.Context, pid int32) (string, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	return proc.NameWithContext(ctx)
}
