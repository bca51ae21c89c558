package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"swarm-relay/domain"
	"swarm-relay/runtime"
	"swarm-relay/runtime/workers"
	"swarm-relay/server"
	"swarm-relay/swarm"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		topic string
		host  string
		port  int
	)
	cmd := &cobra.Command{
		Use:           "swarm-relay",
		Short:         "Bridge browser chat clients to a peer-to-peer swarm",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			// Flags win over the environment.
			if cmd.Flags().Changed("topic") {
				config.Topic = topic
			}
			if cmd.Flags().Changed("host") {
				config.Host = host
			}
			if cmd.Flags().Changed("port") {
				config.Port = port
			}
			if err := config.Validate(); err != nil {
				return err
			}
			return run(config)
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "room key to join at startup")
	cmd.Flags().StringVar(&host, "host", "", "host the web server listens on")
	cmd.Flags().IntVar(&port, "port", 0, "port the web server listens on, 0 picks a free one")
	cmd.AddCommand(newIdentityCmd())
	return cmd
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
func run(config Config) error {
	log := logs.GetLoggerFromString(config.LogLevel)

	// 1. Context & Signals
	// appCtx outlives the signal: clients must still be attached when the shutdown notice goes out.
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()
	ctx, stop := signal.NotifyContext(appCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Node identity (BadgerDB)
	db, err := swarm.OpenStore(config.BadgerFilepath)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	identity, err := swarm.NewKeystore(db, log).LoadOrCreate()
	if err != nil {
		return err
	}

	// 3. Swarm
	backend, err := swarm.New(appCtx, log, swarm.Config{
		ListenAddrs:     config.ListenAddrs(),
		MDNSServiceTag:  config.MDNSServiceTag,
		EventBufferSize: config.EventBufferSize,
	}, identity)
	if err != nil {
		return fmt.Errorf("swarm failed to start: %w", err)
	}
	defer func() { _ = backend.Close() }()

	// 4. Relay core
	registry := runtime.NewRegistry()
	fanout := workers.NewEventFanout(log, registry, config.SinkTimeout)
	room := domain.NewRoomState()
	dispatcher := runtime.NewDispatcher(log, backend, room, fanout)
	relay := runtime.NewRelay(log, registry, fanout, room, backend, dispatcher)

	// 5. Web server
	address := net.JoinHostPort(config.Host, fmt.Sprint(config.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	ws := server.NewWebSocketHandler(appCtx, log, relay, server.SocketConfig{
		ReadLimit:         config.ReadLimit,
		PongTimeout:       config.PongTimeout,
		PingInterval:      config.PingInterval,
		CommandBufferSize: config.CommandBufferSize,
	})
	httpServer := server.NewServer(server.NewRouter(log, ws, relay), ws)

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting web server", "address", listener.Addr().String(), "at", time.Now().UTC())
		if err := httpServer.Serve(listener); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	// 6. Optional gRPC health endpoint
	var health *server.HealthServer
	healthURL := ""
	if config.HealthPort > 0 {
		healthAddress := net.JoinHostPort(config.Host, fmt.Sprint(config.HealthPort))
		healthListener, err := net.Listen("tcp", healthAddress)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", healthAddress, err)
		}
		health = server.NewHealthServer(log)
		health.SetServing(true)
		healthURL = healthListener.Addr().String()
		go func() {
			if err := health.Serve(healthListener); err != nil {
				errChan <- fmt.Errorf("gRPC health server error: %w", err)
			}
		}()
	}

	// 7. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewSwarmBridge(log, backend, fanout),
		workers.NewStartupJoinWorker(log, relay, config.Topic),
		workers.NewTelemetryWorker(log, config.TelemetryInterval, relay),
	)
	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	webURL := fmt.Sprintf("http://%s", listener.Addr().String())
	printBanner(os.Stdout, bannerInfo{
		WebURL:    webURL,
		SocketURL: fmt.Sprintf("ws://%s/", listener.Addr().String()),
		HealthURL: healthURL,
		PeerID:    backend.ID(),
		Addrs:     backend.Addrs(),
		Topic:     config.Topic,
	})

	// 8. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		log.Error("Server failure, shutting down", "error", runErr)
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if health != nil {
		health.SetServing(false)
	}
	if err := relay.Shutdown(shutdownCtx); err != nil {
		log.Warn("Swarm shutdown failed", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("Web server shutdown failed", "error", err)
	}
	if health != nil {
		health.Stop()
	}
	sup.Stop()
	<-supDone
	cancelApp()
	log.Info("Program stopped cleanly")

	return runErr
}
