//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func programData() string {
	if base := os.Getenv("ProgramData"); base != "" {
		return base
	}
	return `C:\ProgramData`
}

func defaultConfigPath() string {
	return filepath.Join(programData(), "GhostLogic", "agent.yaml")
}

func defaultLogDir() string {
	return filepath.Join(programData(), "GhostLogic", "logs")
}

func defaultPIDPath() string {
	return filepath.Join(programData(), "GhostLogic", "blackbox-agent.pid")
}
