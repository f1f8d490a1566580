package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/chn0318/stripelog/config"
	"github.com/chn0318/stripelog/metrics"
	"github.com/chn0318/stripelog/objclass"
	"github.com/chn0318/stripelog/proto/zlogpb"
	"github.com/chn0318/stripelog/storageserver"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stripelog-server",
		Short: "Serve the striped log object class over gRPC",
		Long: `Serve the striped log object class over gRPC.

Configuration is read from --config (optional) and STRIPELOG_* environment
variables, e.g. STRIPELOG_LISTEN=:50051 or STRIPELOG_BACKEND_TYPE=badger.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := cfg.Logging.NewLogger()
	if err != nil {
		return err
	}

	store, err := cfg.Backend.OpenStore(log)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		m       *metrics.Metrics
		httpSrv *http.Server
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		httpSrv = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	maxMsg, err := cfg.MaxMessageBytes()
	if err != nil {
		return err
	}

	class := objclass.New(log)
	srv := storageserver.NewStorageServer(store, class.Methods(), m, log)

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsg),
		grpc.MaxSendMsgSize(maxMsg),
		grpc.ChainUnaryInterceptor(storageserver.RecoveryInterceptor(log)),
	)
	zlogpb.RegisterObjectClassServer(grpcServer, srv)

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.Listen)
	}

	if httpSrv != nil {
		go func() {
			log.Infof("metrics listening on %s", cfg.Metrics.Listen)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("metrics server failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		grpcServer.GracefulStop()
		if httpSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}
	}()

	log.WithFields(logrus.Fields{
		"backend": cfg.Backend.Type,
	}).Infof("storage gRPC server listening on %s", cfg.Listen)
	if err := grpcServer.Serve(lis); err != nil {
		return errors.Wrap(err, "serve")
	}
	return nil
}
