package collector

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

// collectNetwork classifies one connection listing into a summary count and
// the listening-port set. Only entries whose state matches "listening"
// case-insensitively become open ports; established entries are tallied into
// the summary only. The port list is capped like the process listing.
func (c *Collector) collectNetwork(ctx context.Context) (*models.NetworkSummary, []models.OpenPort) {
	conns, err := c.probes.Connections(ctx)
	if err != nil {
		c.logger.Debug("connections probe failed", zap.Error(err))
		return nil, nil
	}

	summary := &models.NetworkSummary{}
	var ports []models.OpenPort

	for _, conn := range conns {
		switch {
		case isListening(conn.State):
			summary.Listening++
			if len(ports) >= c.topN {
				continue
			}
			port := models.OpenPort{
				Proto:   "TCP",
				Address: conn.Address,
				Port:    conn.Port,
				State:   conn.State,
			}
			if conn.PID > 0 {
				pid := conn.PID
				port.PID = &pid
				if name, err := c.probes.ProcessName(ctx, pid); err == nil {
					port.Process = name
				}
			}
			ports = append(ports, port)
		case isEstablished(conn.State):
			summary.Established++
		}
	}

	return summary, ports
}

// isListening reports whether a connection state means a listening socket.
// Platforms disagree on the exact word ("LISTEN" vs "LISTENING").
func isListening(state string) bool {
	s := strings.ToLower(strings.TrimSpace(state))
	return s == "listen" || s == "listening"
}

// isEstablished matches "ESTABLISHED" and the abbreviated "ESTAB" some tools
// report.
func isEstablished(state string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(state)), "estab")
}
