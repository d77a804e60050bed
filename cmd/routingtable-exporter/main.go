package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/telekom/das-schiff-policy-router/pkg/config"
	"github.com/telekom/das-schiff-policy-router/pkg/monitoring"
	"github.com/telekom/das-schiff-policy-router/pkg/version"
	"github.com/telekom/das-schiff-policy-router/pkg/vrf"
)

const (
	twenty = 20
)

var (
	setupLog = logrus.WithField("name", "setup")
)

func main() {
	version.Get().Print(os.Args[0])
	var addr string
	flag.StringVar(&addr, "listen-address", ":7082", "The address to listen on for HTTP requests.")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(fmt.Errorf("error loading routing configuration: %w", err))
	}

	manager, err := config.BuildManager(cfg)
	if err != nil {
		log.Fatal(fmt.Errorf("error building routing tables: %w", err))
	}

	setupLog.WithField("configHash", cfg.Hash()).Info("built routing tables")

	// Setup a new registry.
	reg, err := setupPrometheusRegistry(manager)
	if err != nil {
		log.Fatal(fmt.Errorf("prometheus registry setup error: %w", err))
	}

	setupLog.Info("configured Prometheus registry")

	// Expose the registered metrics and diagnostic endpoints via HTTP.
	mux := setupMux(reg, monitoring.NewEndpoint(manager))

	server := http.Server{
		Addr:              addr,
		ReadHeaderTimeout: twenty * time.Second,
		ReadTimeout:       time.Minute,
		Handler:           mux,
	}

	setupLog.WithFields(logrus.Fields{
		"Addr":              server.Addr,
		"ReadHeaderTimeout": server.ReadHeaderTimeout,
		"ReadTimeout":       server.ReadTimeout,
	}).Info("created server, starting...")

	// Run server
	err = server.ListenAndServe()
	if err != nil {
		log.Fatal(fmt.Errorf("failed to start server: %w", err))
	}
}

func setupPrometheusRegistry(manager *vrf.Manager) (*prometheus.Registry, error) {
	// Create a new registry.
	reg := prometheus.NewRegistry()

	// Add Go module build info.
	reg.MustRegister(collectors.NewBuildInfoCollector())
	reg.MustRegister(collectors.NewGoCollector())

	collector, err := monitoring.NewPolicyRouterCollector(manager)
	if err != nil {
		return nil, fmt.Errorf("failed to create collector %w", err)
	}
	reg.MustRegister(collector)

	return reg, nil
}

func setupMux(reg *prometheus.Registry, e *monitoring.Endpoint) *http.ServeMux {
	mux := e.CreateMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
			Timeout:           time.Minute,
		},
	))
	return mux
}
