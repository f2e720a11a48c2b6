package cmd

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/okravchenko/abook/pkg/api"
	"github.com/okravchenko/abook/pkg/logging"
	"github.com/okravchenko/abook/pkg/shutdown"
	"github.com/spf13/cobra"
)

var (
	servePort     string
	metricsPort   string
	enableMetrics bool
)

const (
	maxLogSize     = 100 * 1024 * 1024 // 100MB
	logRotateCheck = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the contact book HTTP API server",
	Long: `Serves the address book over HTTP so several assistants can share one
book. Exposes contact and birthday endpoints plus an optional Prometheus
metrics listener.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "8080", "API server port")
	serveCmd.Flags().BoolVar(&enableMetrics, "metrics", true, "enable Prometheus metrics endpoint")
	serveCmd.Flags().StringVar(&metricsPort, "metrics-port", "9090", "Prometheus metrics port")
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := logging.NewFileLogger("serve", logging.INFO, false)
	if err != nil {
		log = logging.NewLogger(logging.INFO, false)
	}
	defer log.Close()

	s, err := openStore()
	if err != nil {
		return err
	}

	log.Info("Starting contact book API server", map[string]interface{}{
		"port":    servePort,
		"backend": dbType,
	})

	handler := api.NewHandler(s, log)

	var metrics *api.Metrics
	if enableMetrics {
		metrics = api.NewMetrics(s)
		handler.SetMetrics(metrics)
	}

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + servePort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mgr := shutdown.New(30 * time.Second)
	mgr.Register(shutdown.CloseResource(s, "store"))
	mgr.Register(shutdown.StopHTTPServer(srv, "api"))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("API server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	if enableMetrics {
		metricsSrv := &http.Server{
			Addr:    ":" + metricsPort,
			Handler: metrics.Handler(),
		}
		mgr.Register(shutdown.StopHTTPServer(metricsSrv, "metrics"))

		go func() {
			log.Info("Metrics listener started", map[string]interface{}{"port": metricsPort})
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Metrics server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(logRotateCheck)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := log.RotateIfNeeded(maxLogSize); err != nil {
					log.Error("Log rotation failed", map[string]interface{}{"error": err.Error()})
				}
			case <-mgr.Done():
				return
			}
		}
	}()

	log.Info("API server listening", map[string]interface{}{"addr": srv.Addr})

	if err := mgr.WaitWithContext(cmd.Context()); err != nil {
		mgr.Shutdown()
		return err
	}
	log.Info("Server stopped")
	return nil
}
