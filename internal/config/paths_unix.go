//go:build linux || darwin

package config

import "runtime"

func defaultConfigPath() string {
	if runtime.GOOS == "darwin" {
		return "/usr/local/etc/ghostlogic/agent.yaml"
	}
	return "/etc/ghostlogic/agent.yaml"
}

func defaultLogDir() string {
	if runtime.GOOS == "darwin" {
		return "/usr/local/var/log/ghostlogic"
	}
	return "/var/log/ghostlogic"
}

func defaultPIDPath() string {
	return "/tmp/blackbox-agent.pid"
}
