// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openpark/openpark/internal/config"
	"github.com/openpark/openpark/internal/console"
	"github.com/openpark/openpark/internal/logging"
	"github.com/openpark/openpark/internal/observability"
	"github.com/openpark/openpark/internal/platform"
	"github.com/openpark/openpark/internal/scripting"
	"github.com/openpark/openpark/internal/sim"
	"github.com/openpark/openpark/pkg/errutil"
)

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the park simulation with the scripting host",
		Long: `Run the simulation loop, load plugins from the plugin directory,
and read console input from stdin as an interactive script REPL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runGame(cmd.Context(), cfg, cmd)
		},
	}

	// Flag names mirror config keys so posflag can overlay them.
	defaults := config.Default()
	cmd.Flags().String("park.name", defaults.Park.Name, "park name")
	cmd.Flags().Int("park.tick_ms", defaults.Park.TickMs, "simulation tick interval in milliseconds")
	cmd.Flags().String("plugin.dir", defaults.Plugin.Dir, "plugin directory (default: XDG data dir)")
	cmd.Flags().Bool("plugin.enable_hot_reloading", defaults.Plugin.EnableHotReloading, "reload plugins when their files change")
	cmd.Flags().String("log.format", defaults.Log.Format, "log format (json or text)")
	cmd.Flags().String("metrics.addr", defaults.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")

	return cmd
}

// runGame wires the simulation, the scripting engine, and the console
// together and runs the tick loop until a shutdown signal.
func runGame(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	logging.SetDefault("openpark", version, cfg.Log.Format)

	slog.Info("starting park simulation",
		"park", cfg.Park.Name,
		"tick_ms", cfg.Park.TickMs,
		"hot_reload", cfg.Plugin.EnableHotReloading,
	)

	state := sim.NewState(cfg.Park.Name)
	registry := sim.NewRegistry()
	sim.RegisterCheats(registry)
	dispatcher := sim.NewDispatcher(registry, state)
	session := &sim.Session{Mode: sim.ModeNone}

	env := &platform.Environment{PluginDirOverride: cfg.Plugin.Dir}
	cons := console.NewWriter(cmd.OutOrStdout())

	engine := scripting.NewEngine(cons, env, dispatcher, session, scripting.Options{
		EnableHotReloading: cfg.Plugin.EnableHotReloading,
	})
	defer engine.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured
	var obsServer *observability.Server
	var simMetrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, func() bool { return true })
		engine.SetMetrics(scripting.NewMetrics(obsServer.Registry()))
		simMetrics = obsServer.Metrics()

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	if err := engine.Initialise(); err != nil {
		return err
	}
	if err := engine.LoadPlugins(); err != nil {
		return err
	}

	// stdin is the interactive console. Each line is queued for the
	// simulation goroutine; reading blocks until its output is printed
	// so lines and their results interleave correctly.
	go func() {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			<-engine.Eval(line)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(time.Duration(cfg.Park.TickMs) * time.Millisecond)
	defer ticker.Stop()

	cmd.Println("Park open: " + cfg.Park.Name)
	slog.Info("park simulation ready", "park", cfg.Park.Name)

loop:
	for {
		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig)
			break loop
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down")
			break loop
		case <-ticker.C:
			start := time.Now()

			dayRolled := state.Advance()
			if err := engine.Update(); err != nil {
				errutil.LogError(slog.Default(), "scripting update failed", err)
				break loop
			}
			engine.Hooks().Call(scripting.HookIntervalTick)
			if dayRolled {
				engine.Hooks().Call(scripting.HookIntervalDay)
			}

			if simMetrics != nil {
				simMetrics.TicksTotal.Inc()
				simMetrics.UpdateDuration.Observe(time.Since(start).Seconds())
			}
		}
	}

	// Graceful shutdown
	slog.Info("shutting down...")

	engine.StopPlugins()

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error so a failing server triggers graceful shutdown. It
// exits when an error is received, the channel is closed, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
