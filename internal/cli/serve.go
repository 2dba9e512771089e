package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incubator_monitor/internal/changefeed"
	"incubator_monitor/internal/handlers"
	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/scheduler"
	"incubator_monitor/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var accessLog bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket API",
	Long: `Starts the API server together with the background alert evaluation and,
when mqtt.broker is configured, the device state change feed.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&accessLog, "access-log", false, "write an access log to stdout")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.MQTT.Broker != "" {
		bridge := changefeed.NewBridge(changefeed.BridgeConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
		}, a.hub, log)
		if err := bridge.Start(); err != nil {
			// live views fall back to polling
			log.Warnw("mqtt_bridge_unavailable", "broker", cfg.MQTT.Broker, "err", err)
		} else {
			defer bridge.Stop()
		}
	}

	// server-wide alert evaluation over every device state
	background := scheduler.New(ctx)
	defer background.Stop()
	background.Every("evaluate", cfg.Polling.Evaluate, func(ctx context.Context) {
		if _, err := a.services.EvaluateAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("alerts_evaluate_all_failed", "err", err)
		}
	})

	apiHandler := handlers.NewHandler(a.services, log, handlers.Options{
		Hub:     a.hub,
		Metrics: a.metrics,
		Polling: handlers.Polling{
			Devices:  cfg.Polling.Devices,
			AlertLog: cfg.Polling.AlertLog,
			Online:   cfg.Polling.Online,
		},
	})
	var access io.Writer
	if accessLog {
		access = os.Stdout
	}
	handler := server.Wrap(apiHandler.InitRoutes(), cfg.CORS.AllowedOrigins, access)

	srv := &server.Server{}
	errCh := make(chan error, 1)
	go func() {
		log.Infow("server_started", "port", cfg.Port)
		if err := srv.Run(cfg.Port, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(errCh, cancel, srv, log)
}

// waitForShutdown blocks until a termination signal or a server error, then shuts down.
func waitForShutdown(errCh <-chan error, cancel context.CancelFunc, srv *server.Server, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		log.Infow("shutting down server...")
	case runErr = <-errCh:
		log.Errorw("error starting server", "err", runErr)
	}

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
		return err
	}
	return runErr
}
