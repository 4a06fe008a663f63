// Command miniredis-server runs the key-value / pub-sub server
// described in §6's "Server CLI surface": it binds 127.0.0.1:<port> and
// terminates on SIGINT with a graceful drain.
package main

import (
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coregx/miniredis/metrics"
	"github.com/coregx/miniredis/server"
	"github.com/coregx/miniredis/store"
)

func main() {
	var port uint16
	var metricsAddr string

	root := &cobra.Command{
		Use:   "miniredis-server",
		Short: "Run the miniredis key-value / pub-sub server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(port, metricsAddr)
		},
	}
	root.Flags().Uint16Var(&port, "port", 6379, "TCP port to listen on")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "optional address to serve /metrics on (disabled if empty)")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("miniredis-server: exiting")
	}
}

func run(port uint16, metricsAddr string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := log.WithField("component", "miniredis-server")

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				entry.WithError(err).Warn("metrics server exited")
			}
		}()
		entry.WithField("addr", metricsAddr).Info("serving /metrics")
	}

	db := store.New(entry, collector)
	defer db.Close()

	srv := server.New(db, collector, entry)

	addr := net.JoinHostPort("127.0.0.1", portString(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	entry.WithField("addr", addr).Info("listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	select {
	case sig := <-sigCh:
		entry.WithField("signal", sig).Info("shutdown signal received, draining")
		srv.Shutdown()
		_ = ln.Close()
		<-serveErr
		srv.Wait()
		entry.Info("all connections drained, exiting")
		return nil
	case err := <-serveErr:
		return err
	}
}

func portString(p uint16) string {
	return strconv.FormatUint(uint64(p), 10)
}
