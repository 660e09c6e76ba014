package main

import (
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/hanpama/usergraph/internal/store"
	"github.com/hanpama/usergraph/internal/store/grpcstore"
	"github.com/hanpama/usergraph/internal/store/httpstore"
)

func newStoreServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store-server",
		Short: "Serve a record store over REST or gRPC",
		Long: `store-server exposes a local record store (memory or badger) to other
usergraph instances, either as a json-server style REST API or as the
usergraph.RecordService gRPC service.`,
		Example: `  usergraph store-server --protocol http --listen :3000
  usergraph store-server --protocol grpc --listen :50051 --store.backend badger`,
		Args: cobra.NoArgs,
		RunE: runStoreServer,
	}
	cmd.Flags().String("protocol", "http", "protocol to serve: http or grpc")
	cmd.Flags().String("listen", ":3000", "listen address")
	addStoreFlags(cmd.Flags())
	return cmd
}

func runStoreServer(cmd *cobra.Command, args []string) error {
	v, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	switch b := v.GetString("store.backend"); b {
	case backendMemory, backendBadger:
	default:
		return errors.Errorf("store-server cannot serve the %q backend", b)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, v, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(s) }()

	addr := v.GetString("listen")
	switch p := v.GetString("protocol"); p {
	case "http":
		srv := &http.Server{
			Addr:              addr,
			Handler:           httpstore.NewHandler(s, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("REST record service listening", zap.String("addr", addr))
		return listenAndServe(ctx, srv, logger)
	case "grpc":
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return errors.Wrapf(err, "listen %s", addr)
		}
		srv := grpc.NewServer(grpc.UnaryInterceptor(grpcstore.UnaryServerInterceptor(logger)))
		grpcstore.Register(srv, s)
		go func() {
			<-ctx.Done()
			logger.Info("shutting down")
			srv.GracefulStop()
		}()
		logger.Info("gRPC record service listening", zap.String("addr", addr))
		return srv.Serve(lis)
	default:
		return errors.Errorf("unknown protocol %q", p)
	}
}
