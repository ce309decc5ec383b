package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/expression-tracker/internal/broadcast"
	"github.com/kozaktomas/expression-tracker/internal/constants"
	"github.com/kozaktomas/expression-tracker/internal/metrics"
	"github.com/kozaktomas/expression-tracker/internal/sink"
	"github.com/kozaktomas/expression-tracker/internal/source"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
	"github.com/kozaktomas/expression-tracker/internal/web"
	"github.com/kozaktomas/expression-tracker/internal/web/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Expression Tracker web server.
Trackers push frames over WebSocket (/api/v1/frames/ws) or HTTP (/api/v1/frames);
browsers follow detected expressions over Server-Sent Events. When AMQP_URL is set,
every result is also published to an AMQP topic exchange.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().Bool("amqp-only-matches", false, "Skip publishing frames in which nothing matched")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port != 0 {
		a.cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		a.cfg.Web.Host = host
	}

	var detector *tracker.Detector
	m := metrics.New(func() int { return detector.Subscribers() })
	detector = tracker.NewDetector(tracker.Options{
		Rules:   a.rules,
		Debug:   a.cfg.Tracker.Debug,
		Logger:  a.log,
		Metrics: m,
	})

	ingest := source.NewWebSocket(source.WebSocketOptions{
		Buffer:      a.cfg.Tracker.QueueSize,
		Logger:      a.log,
		Metrics:     m,
		CheckOrigin: middleware.NewOrigins(a.cfg.Web.AllowedOrigins).CheckOrigin,
	})

	var (
		publisher *sink.AMQP
		queue     *broadcast.SerialQueue
	)
	if a.cfg.AMQP.Enabled() {
		publisher, err = sink.DialAMQP(a.cfg.AMQP.URL, sink.AMQPOptions{
			Exchange:    a.cfg.AMQP.Exchange,
			OnlyMatches: mustGetBool(cmd, "amqp-only-matches"),
			Labels:      a.labels,
			Logger:      a.log,
		})
		if err != nil {
			return err
		}
		queue = broadcast.NewSerialQueue(a.cfg.Tracker.QueueSize)
		detector.Expressions().SubscribeOn(queue, publisher.Observe)
		a.log.WithField("exchange", a.cfg.AMQP.Exchange).Info("Publishing expressions to AMQP")
	}

	server := web.NewServer(web.Options{
		Config:   a.cfg,
		Detector: detector,
		Labels:   a.labels,
		Ingest:   ingest,
		Metrics:  m,
		Logger:   a.log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runDone := make(chan error, 1)
	go func() {
		runDone <- detector.Run(ctx, ingest)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.ErrOrStderr(), "\nShutting down...")
	case err = <-serveErr:
	case err = <-runDone:
		if err == nil {
			err = fmt.Errorf("frame ingest stopped unexpectedly")
		}
	}
	stop()

	detector.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.log.WithError(shutdownErr).Error("Server shutdown failed")
	}

	if queue != nil {
		queue.Close()
	}
	if publisher != nil {
		if closeErr := publisher.Close(); closeErr != nil {
			a.log.WithError(closeErr).Warn("Failed to close AMQP connection")
		}
	}

	a.log.WithField("frames", detector.Frames()).Info("Stopped")
	return err
}
