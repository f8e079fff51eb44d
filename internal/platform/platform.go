// Package platform isolates the two genuinely OS-specific behaviors the
// agent has: how a running agent is told to stop, and how a detached
// background child is spawned. Everything else goes through gopsutil.
package platform
