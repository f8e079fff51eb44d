// Package main is the entry point for the Blackbox telemetry agent.
// It loads configuration, registers with the backend on first run, and
// drives the collect/send loop either in the foreground, as a detached
// background process, or under the Windows service manager.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/collector"
	"github.com/ghostlogic/blackbox-agent/internal/config"
	"github.com/ghostlogic/blackbox-agent/internal/logging"
	"github.com/ghostlogic/blackbox-agent/internal/pidfile"
	"github.com/ghostlogic/blackbox-agent/internal/scheduler"
	"github.com/ghostlogic/blackbox-agent/internal/service"
	"github.com/ghostlogic/blackbox-agent/internal/transport"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	root := &cli.Command{
		Name:  "blackbox-agent",
		Usage: "GhostLogic Black Box host telemetry agent",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the agent config file",
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "disable TLS verification (demo/self-signed backends only)",
			},
		},
		Commands: []*cli.Command{
			runCmd(),
			startCmd(),
			stopCmd(),
			versionCmd(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path (flag, env, platform default) and
// loads it, applying global flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, string, error) {
	path := cmd.String("config")
	if path == "" {
		path = config.Locate()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if cmd.Bool("insecure") {
		cfg.Server.InsecureTLS = true
	}
	return cfg, path, nil
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the agent in the foreground",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, cfgPath, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := logging.New(cfg.Logging.Level, cfg.Logging.Dir)
			defer logger.Sync()

			logger.Info("Starting Blackbox agent",
				zap.String("version", version),
				zap.String("server", cfg.Server.URL))

			// Obtaining a credential is the one fatal startup path.
			if err := ensureRegistered(ctx, cfg, cfgPath, logger); err != nil {
				logger.Error("Registration failed", zap.Error(err))
				return fmt.Errorf("no tenant key and registration failed: %w", err)
			}

			for _, problem := range cfg.Validate() {
				logger.Warn("Config problem", zap.String("detail", problem))
			}

			if service.IsWindowsService() {
				logger.Info("Running as Windows service")
				svc := service.New(logger, func(ctx context.Context) {
					runAgent(ctx, cfg, logger)
				})
				return svc.Run()
			}

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				logger.Info("Received signal, shutting down",
					zap.String("signal", sig.String()))
				cancel()
			}()

			pidPath := cfg.PIDFilePath()
			if err := pidfile.Write(pidPath, os.Getpid()); err != nil {
				logger.Warn("Cannot write PID file", zap.String("path", pidPath), zap.Error(err))
			} else {
				defer pidfile.Remove(pidPath)
			}

			runAgent(runCtx, cfg, logger)
			logger.Info("Agent stopped")
			return nil
		},
	}
}

func startCmd() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "start the agent as a detached background process",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, cfgPath, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := logging.New(cfg.Logging.Level, "")
			defer logger.Sync()

			// Register here, on the terminal, before detaching: the child's
			// output is discarded, so a key banner or registration error
			// printed there would never reach the operator.
			if err := ensureRegistered(ctx, cfg, cfgPath, logger); err != nil {
				return fmt.Errorf("no tenant key and registration failed: %w", err)
			}

			pid, err := spawnBackground(cfgPath, cmd.Bool("insecure"))
			if err != nil {
				return fmt.Errorf("spawning background agent: %w", err)
			}

			pidPath := cfg.PIDFilePath()
			if err := pidfile.Write(pidPath, pid); err != nil {
				return fmt.Errorf("recording agent pid: %w", err)
			}

			fmt.Printf("Agent running in the background.\n")
			fmt.Printf("  Config: %s\n", cfgPath)
			fmt.Printf("  Logs:   %s\n", cfg.Logging.Dir)
			fmt.Printf("  PID:    %d\n", pid)
			fmt.Printf("To stop: blackbox-agent stop\n")
			return nil
		},
	}
}

func stopCmd() *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "stop a running background agent",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging.Level, "")
			defer logger.Sync()
			return pidfile.Stop(cfg.PIDFilePath(), logger)
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print the agent version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("blackbox-agent %s\n", version)
			return nil
		},
	}
}

// ensureRegistered obtains a tenant key when none is configured, persisting
// it back to the config file so subsequent runs authenticate immediately.
func ensureRegistered(ctx context.Context, cfg *config.Config, cfgPath string, logger *zap.Logger) error {
	if cfg.Server.TenantKey != "" {
		return nil
	}

	logger.Info("No tenant key configured, registering with backend",
		zap.String("server", cfg.Server.URL))

	hostname, _ := os.Hostname()
	client := transport.New(cfg.Server.URL, "", cfg.Server.InsecureTLS, logger)
	resp, err := client.Register(ctx, cfg.Agent.ID, hostname)
	if err != nil {
		return err
	}

	cfg.Server.TenantKey = resp.APIKey
	if err := config.Write(cfg, cfgPath); err != nil {
		logger.Warn("Cannot persist tenant key to config", zap.Error(err))
	}

	fmt.Printf("\nRegistered with tenant %s\n", resp.TenantID)
	fmt.Printf("API key (paste into the Black Box Console):\n\n  %s\n\n", resp.APIKey)
	return nil
}

// runAgent wires the collector, transport and loop together and blocks
// until the context is cancelled.
func runAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	probes := collector.NewSysProbes()
	coll := collector.New(probes, cfg.Collection.TopProcesses, logger)
	client := transport.New(cfg.Server.URL, cfg.Server.TenantKey, cfg.Server.InsecureTLS, logger)

	loop := scheduler.New(coll, client, cfg, logger)
	loop.Run(ctx)
}
