package commands

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/abci/server"

	"github.com/tendermint/escrow/abci/escrow"
	"github.com/tendermint/escrow/config"
	"github.com/tendermint/escrow/internal/exchange"
	"github.com/tendermint/escrow/libs/log"
	tmos "github.com/tendermint/escrow/libs/os"
)

const shutdownTimeout = 4 * time.Second

// AddStartFlags exposes the serving options on the command-line.
func AddStartFlags(cmd *cobra.Command, conf *config.Config) {
	cmd.Flags().String("proxy-app", conf.ProxyApp, "address to serve the ABCI application on")
	cmd.Flags().String("abci", conf.ABCI, "specify abci transport (socket | grpc)")
	cmd.Flags().String("db-backend", conf.DBBackend, "database backend")
	cmd.Flags().String("db-dir", conf.DBPath, "database directory")
	cmd.Flags().Bool("instrumentation.prometheus", conf.Instrumentation.Prometheus, "serve Prometheus metrics")
	cmd.Flags().String(
		"instrumentation.prometheus-listen-addr",
		conf.Instrumentation.PrometheusListenAddr,
		"Prometheus listen address")
}

// MakeStartCommand returns the command that serves the exchange to a
// Tendermint node until the process is signalled.
func MakeStartCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Serve the escrow application",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.DefaultDBProvider(&config.DBContext{ID: "escrow", Config: conf})
			if err != nil {
				return err
			}

			metrics := exchange.NopMetrics()
			if conf.Instrumentation.Prometheus {
				metrics = exchange.PrometheusMetrics(conf.Instrumentation.Namespace)
			}

			app, err := escrow.NewApplication(db, logger.With("module", "escrow"), metrics)
			if err != nil {
				return err
			}

			srv, err := server.NewServer(conf.ProxyApp, conf.ABCI, app)
			if err != nil {
				return err
			}
			srv.SetLogger(logger.With("module", "abci-server"))
			if err := srv.Start(); err != nil {
				return err
			}

			var promSrv *http.Server
			if conf.Instrumentation.Prometheus {
				promSrv = startPrometheusServer(conf.Instrumentation, logger)
			}

			tmos.TrapSignal(logger, func() {
				if err := srv.Stop(); err != nil {
					logger.Error("error while stopping ABCI server", "err", err)
				}
				if promSrv != nil {
					ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					if err := promSrv.Shutdown(ctx); err != nil {
						logger.Error("Prometheus HTTP server Shutdown", "err", err)
					}
				}
				if err := app.Close(); err != nil {
					logger.Error("error while closing database", "err", err)
				}
			})

			logger.Info("started escrow application",
				"addr", conf.ProxyApp,
				"abci", conf.ABCI,
				"db", conf.DBDir())

			// Run forever.
			select {}
		},
	}

	AddStartFlags(cmd, conf)
	return cmd
}

func startPrometheusServer(conf *config.InstrumentationConfig, logger log.Logger) *http.Server {
	srv := &http.Server{
		Addr: conf.PrometheusListenAddr,
		Handler: promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer, promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{MaxRequestsInFlight: conf.MaxOpenConnections},
			),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			// Error starting or closing listener:
			logger.Error("Prometheus HTTP server ListenAndServe", "err", err)
		}
	}()
	return srv
}
