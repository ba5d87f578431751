package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorcha-inc/cadenza/internal/bridge"
	"github.com/dorcha-inc/cadenza/internal/config"
	"github.com/dorcha-inc/cadenza/internal/core"
	"github.com/dorcha-inc/cadenza/internal/server"
)

type serveFlags struct {
	configPath    string
	deviceBaseURL string
	timeout       float64
	port          int
	useStdio      bool
	prettyLog     bool
}

// newServeCmd creates the serve command
func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cadenza MCP server",
		Long: `Start the cadenza MCP server. This is the default command when no subcommand
is specified.

The server can run in HTTP mode (default port 8080) or stdio mode for MCP
clients. The device base URL is required and must include an explicit scheme,
e.g. http://192.168.1.42.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}

	addServeFlags(cmd, &flags)

	return cmd
}

// addServeFlags registers the serve flags on a command
func addServeFlags(cmd *cobra.Command, flags *serveFlags) {
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to cadenza.yaml config file")
	cmd.Flags().StringVar(&flags.deviceBaseURL, "device-base-url", "", "Base URL for the device REST API (e.g. http://192.168.1.42)")
	cmd.Flags().Float64Var(&flags.timeout, "timeout", 0, "HTTP timeout for device calls in seconds (overrides config file)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "Port to listen on (ignored if stdio is used)")
	cmd.Flags().BoolVar(&flags.useStdio, "stdio", false, "Use stdio instead of TCP port")
	cmd.Flags().BoolVar(&flags.prettyLog, "pretty", false, "Use pretty-printed logs instead of JSON")
}

// runServe runs the server with the given flags
func runServe(flags serveFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v", err)
		return err
	}

	applyFlagOverrides(cfg, flags)

	// Initialize global logger
	if err := core.Init(resolveLogFormat(cfg, flags.prettyLog), string(cfg.LogLevel)); err != nil {
		fmt.Printf("Failed to initialize logger: %v", err)
		return err
	}
	defer zap.L().Sync() //nolint:errcheck // Ignore sync errors on stdout/stderr, they're not critical and common in test environments

	if cfg.DeviceBaseURL == "" {
		cfg.DeviceBaseURL = core.GetEnv("DEVICE_BASE_URL")
	}
	if cfg.DeviceBaseURL == "" {
		return errors.New("device base URL is required: set --device-base-url or CADENZA_DEVICE_BASE_URL")
	}

	// One long-lived client per process, reused for all calls and released
	// exactly once on every exit path below.
	client, err := bridge.New(cfg.DeviceBaseURL, cfg.HTTPTimeout())
	if err != nil {
		return fmt.Errorf("invalid device configuration: %w", err)
	}
	defer client.Close()

	srv := server.New(client)

	ctx, cancel := setupSignalHandling(context.Background())
	defer cancel()

	if err := runServer(ctx, srv, flags.useStdio, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			zap.L().Info("Server context canceled, exiting gracefully")
			return nil
		}

		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// applyFlagOverrides applies command line flags on top of the loaded config
func applyFlagOverrides(cfg *config.Config, flags serveFlags) {
	if flags.deviceBaseURL != "" {
		cfg.DeviceBaseURL = flags.deviceBaseURL
	}
	if flags.timeout > 0 {
		cfg.Timeout = flags.timeout
	}
	if flags.port != 0 {
		cfg.Port = flags.port
	}
}

// resolveLogFormat determines whether to log pretty based on the CLI flag
// and config; in auto mode, pretty is used only when stderr is a terminal
func resolveLogFormat(cfg *config.Config, prettyLog bool) bool {
	if prettyLog {
		return true
	}
	switch cfg.LogFormat {
	case config.LogFormatPretty:
		return true
	case config.LogFormatAuto:
		return core.IsTerminal(os.Stderr)
	default:
		return false
	}
}

// setupSignalHandling sets up signal handling for graceful shutdown
func setupSignalHandling(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		zap.L().Info("Received shutdown signal")
		cancel()
	}()

	return ctx, cancel
}

// runServer starts the server in either stdio or HTTP mode
func runServer(ctx context.Context, srv *server.BridgeServer, useStdio bool, cfg *config.Config) error {
	if useStdio {
		zap.L().Info("Starting cadenza server on stdio")
		return srv.ServeStdio(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	zap.L().Info("Starting cadenza server", zap.String("address", addr))
	return srv.Serve(ctx, addr)
}
