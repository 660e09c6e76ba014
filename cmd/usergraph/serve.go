package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/logging"
	"github.com/hanpama/usergraph/internal/metrics"
	"github.com/hanpama/usergraph/internal/otel"
	"github.com/hanpama/usergraph/internal/resolve"
	"github.com/hanpama/usergraph/internal/server"
	"github.com/hanpama/usergraph/internal/store"
	"github.com/hanpama/usergraph/internal/usergraph"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL HTTP server",
		Example: `  # In-memory store with the sample data
  usergraph serve

  # Against a json-server compatible REST service
  usergraph serve --store.backend http --store.url http://localhost:3000

  # Embedded database with a record cache and tracing
  usergraph serve --store.backend badger --store.dir ./data --store.cache-size 10000 --otel.endpoint localhost:4317`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	fs := cmd.Flags()
	fs.String("server.addr", ":4000", "HTTP listen address")
	fs.Bool("server.pretty", false, "pretty-print JSON responses")
	fs.Duration("server.timeout", 10*time.Second, "per-request timeout")
	fs.Int64("server.max-body-bytes", 1<<20, "request body limit; 0 means unlimited")
	fs.StringSlice("server.cors-origin", nil, "allowed CORS origin, * for any. Repeatable")
	fs.StringSlice("server.metadata-header", nil, "forward HTTP header to the gRPC record service. Repeatable")
	fs.Bool("server.graphiql", true, "serve the GraphiQL explorer")
	fs.Int("resolve.concurrency", 16, "max resolvers running at once per batch")
	fs.Bool("metrics", true, "expose Prometheus metrics on /metrics")
	fs.String("otel.endpoint", "", "OTLP gRPC collector endpoint; empty disables tracing")
	fs.String("otel.service", "usergraph", "OpenTelemetry service name")
	addStoreFlags(fs)
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	v, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventbus.Use(eventbus.New())
	defer logging.Subscribe(logger)()
	shutdownTracing, err := otel.Setup(v.GetString("otel.endpoint"), v.GetString("otel.service"))
	if err != nil {
		return errors.Wrap(err, "otel setup")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var metricsHandler http.Handler
	if v.GetBool("metrics") {
		m := metrics.New()
		defer m.Subscribe()()
		metricsHandler = m.Handler()
	}

	s, err := openStore(ctx, v, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(s) }()

	sch, err := usergraph.NewSchema(s)
	if err != nil {
		return errors.Wrap(err, "build schema")
	}
	runtime := resolve.NewRuntime(sch,
		resolve.WithLogger(logger),
		resolve.WithConcurrency(v.GetInt("resolve.concurrency")))

	opts := []server.Option{
		server.WithTimeout(v.GetDuration("server.timeout")),
		server.WithMaxBodyBytes(v.GetInt64("server.max-body-bytes")),
		server.WithGraphiQL(v.GetBool("server.graphiql")),
	}
	if v.GetBool("server.pretty") {
		opts = append(opts, server.WithPretty())
	}
	if origins := v.GetStringSlice("server.cors-origin"); len(origins) > 0 {
		opts = append(opts, server.WithCORS(origins...))
	}
	if headers := v.GetStringSlice("server.metadata-header"); len(headers) > 0 {
		opts = append(opts, server.WithMetadataHeaders(headers...))
	}
	handler := server.New(runtime, sch, opts...)

	srv := &http.Server{
		Addr:              v.GetString("server.addr"),
		Handler:           server.Routes(handler, metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("GraphQL server listening", zap.String("addr", srv.Addr))
	return listenAndServe(ctx, srv, logger)
}

// listenAndServe runs srv until ctx is done, then drains open requests.
func listenAndServe(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
