package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raizessolucoes/arco-relay/internal/arco"
	"github.com/raizessolucoes/arco-relay/internal/clock"
	"github.com/raizessolucoes/arco-relay/internal/command"
	"github.com/raizessolucoes/arco-relay/internal/config"
	"github.com/raizessolucoes/arco-relay/internal/dispatch"
	"github.com/raizessolucoes/arco-relay/internal/health"
	"github.com/raizessolucoes/arco-relay/internal/logging"
	"github.com/raizessolucoes/arco-relay/internal/metrics"
	"github.com/raizessolucoes/arco-relay/internal/relay"
	"github.com/raizessolucoes/arco-relay/internal/signature"
	"github.com/raizessolucoes/arco-relay/internal/slack"
	"github.com/raizessolucoes/arco-relay/internal/tracing"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	ctx := context.Background()

	logger := logging.New(cfg.AppName)

	shutdownTracing, err := tracing.InitTracing(ctx, cfg.AppName)
	if err != nil {
		log.Fatalf("tracing init: %v", err)
	}
	defer shutdownTracing()

	if cfg.Slack.SigningSecret == "" {
		logger.Plain().Warn("SLACK_SIGNING_SECRET is empty, all commands will be rejected")
	}

	client := arco.NewClient(cfg.Arco, cfg.Retry, logger)
	responder := slack.NewResponder(cfg.Retry.AttemptTimeout, logger)
	dispatcher := dispatch.New(client, responder, command.Defaults(cfg.Defaults), clock.NewSystem(), logger)
	verifier := signature.NewVerifier(cfg.Slack.SigningSecret, cfg.Slack.ReplayLeeway)
	srv := relay.NewServer(cfg.Slack, verifier, dispatcher, logger)

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/slack/consulta", srv.HandleCommand)
	mux.HandleFunc("/healthz", health.HTTPHandler(client))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpSrv := &http.Server{Addr: cfg.HTTPPort, Handler: mux}
	go func() {
		logger.Plain().WithField("addr", cfg.HTTPPort).Info("relay HTTP listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	_ = httpSrv.Shutdown(context.Background())
	logger.Plain().Info("relay stopped")
}
