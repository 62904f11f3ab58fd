package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/drawsim/server"
	"github.com/inference-sim/drawsim/sim"
	"github.com/inference-sim/drawsim/sim/history"
)

var (
	serverPort       int           // HTTP port
	tickInterval     time.Duration // Delay between rounds
	inferenceTimeout time.Duration // Per-round inference deadline
	autoplay         bool          // Start playing immediately
)

// serveCmd runs the real-time controller behind the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the real-time simulation over HTTP and WebSocket",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, store, err := buildSimulator(ctx, cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() {
			if err := history.CloseIfSupported(store); err != nil {
				logrus.Warnf("Closing history store: %v", err)
			}
		}()

		ctrl := sim.NewController(s, sim.ControllerConfig{
			TickInterval:     cfg.Simulation.TickInterval,
			InferenceTimeout: cfg.Simulation.InferenceTimeout,
		})
		// Stopped only after HTTP shutdown has drained handlers.
		ctrlCtx, stopCtrl := context.WithCancel(context.Background())
		defer stopCtrl()
		ctrl.Start(ctrlCtx)
		if cfg.Server.Autoplay {
			ctrl.Play()
		}

		srv := server.New(server.Config{
			Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
			Engine:         ctrl,
			History:        store,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("HTTP server failed: %v", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("HTTP shutdown: %v", err)
		}
		stopCtrl()
		<-ctrl.Done()
		logrus.Info("Server stopped.")
	},
}

func init() {
	d := DefaultConfig()
	registerSimulationFlags(serveCmd)
	serveCmd.Flags().IntVar(&serverPort, "port", d.Server.Port, "HTTP port")
	serveCmd.Flags().DurationVar(&tickInterval, "tick", d.Simulation.TickInterval, "Delay between rounds while playing")
	serveCmd.Flags().DurationVar(&inferenceTimeout, "inference-timeout", 0, "Per-round inference deadline (0 = none)")
	serveCmd.Flags().BoolVar(&autoplay, "autoplay", false, "Start playing immediately")
}
