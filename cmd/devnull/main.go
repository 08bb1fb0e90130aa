// Command devnull runs the dev-null mock HTTP server, and also exposes the
// HAR-to-config converter as a subcommand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/devnull-http/devnull/internal/config"
	"github.com/devnull-http/devnull/internal/har"
	"github.com/devnull-http/devnull/internal/logging"
	"github.com/devnull-http/devnull/internal/metrics"
	"github.com/devnull-http/devnull/internal/reload"
	"github.com/devnull-http/devnull/internal/service"
)

const defaultListen = "127.0.0.1:3000"

func main() {
	if len(os.Args) < 2 {
		runServer(os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "convert-har":
		runConvertHar(os.Args[2:])
	case "server":
		runServer(os.Args[2:])
	default:
		runServer(os.Args[1:])
	}
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("c", envOr("CONFIG_PATH", "configs/example/devnull.yaml"), "path to root configuration file")
	listen := fs.String("l", envOr("SERVER_LISTEN", defaultListen), "listen address")
	fs.Parse(args)

	// Bootstrap logger, replaced below once the root config is readable.
	bootLogger, err := logging.New(config.LogConfig{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	bootLogger.Info("starting devnull", zap.String("config_path", *configPath))

	parsed, err := config.Load(*configPath)
	if err != nil {
		bootLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger, err := logging.New(parsed.Root.Log)
	if err != nil {
		bootLogger.Fatal("failed to create configured logger", zap.Error(err))
	}
	defer logger.Sync()

	m := metrics.New(logger)

	interval := reload.DefaultInterval
	if parsed.Root.ReloadInterval != "" {
		parsedInterval, err := time.ParseDuration(parsed.Root.ReloadInterval)
		if err != nil {
			logger.Fatal("invalid reload_interval", zap.String("reload_interval", parsed.Root.ReloadInterval), zap.Error(err))
		}
		interval = parsedInterval
	}

	supervisor, err := reload.New(*configPath, interval, logger, m)
	if err != nil {
		logger.Fatal("failed to build initial service layer", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go supervisor.Start(ctx)

	handler := service.WrapCompression(buildHandler(supervisor, m, logger))

	httpServer := &fasthttp.Server{
		Handler:               handler,
		Name:                  "devnull",
		IdleTimeout:           60 * time.Second,
		NoDefaultServerHeader: true,
	}

	if parsed.Root.Metrics.Enabled {
		go serveMetrics(parsed.Root.Metrics.Listen, parsed.Root.Metrics.Path, m, logger)
	}

	go func() {
		logger.Info("listening", zap.String("addr", *listen))
		if err := httpServer.ListenAndServe(*listen); err != nil {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()

	logger.Info("shutting down devnull")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("failed to shut down gracefully", zap.Error(err))
	}
	logger.Info("devnull stopped")
}

func buildHandler(supervisor *reload.Supervisor, m *metrics.Metrics, logger *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		req := service.BuildRequest(ctx)
		svc := supervisor.Current()

		result := svc.Handle(ctx, req, req.Headers)
		if result == nil {
			ctx.Response.SetStatusCode(fasthttp.StatusRequestTimeout)
			return
		}

		service.WriteResult(ctx, result.Status, result.Headers, result.Body)

		if result.PayloadID == "null" {
			m.ObserveUnmatched()
		} else {
			m.ObserveMatch(result.PayloadID)
		}
		m.ObserveRequestDuration(result.Status, time.Since(start))
	}
}

func serveMetrics(listen, path string, m *metrics.Metrics, logger *zap.Logger) {
	if listen == "" {
		listen = "127.0.0.1:9090"
	}
	if path == "" {
		path = "/metrics"
	}

	srv := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) != path {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				return
			}
			m.ServeHTTP(ctx)
		},
		Name: "devnull-metrics",
	}

	logger.Info("metrics listening", zap.String("addr", listen), zap.String("path", path))
	if err := srv.ListenAndServe(listen); err != nil {
		logger.Error("metrics server error", zap.Error(err))
	}
}

func runConvertHar(args []string) {
	fs := flag.NewFlagSet("convert-har", flag.ExitOnError)
	harPath := fs.String("har", "", "path to source .har file")
	destination := fs.String("destination", "", "directory to write response config files into")
	fs.Parse(args)

	if *harPath == "" || *destination == "" {
		fmt.Fprintln(os.Stderr, "usage: devnull convert-har --har <file> --destination <dir>")
		os.Exit(1)
	}

	count, err := har.Convert(*harPath, *destination)
	if err != nil {
		fmt.Fprintf(os.Stderr, "convert-har failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d matcher config(s) to %s\n", count, *destination)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
