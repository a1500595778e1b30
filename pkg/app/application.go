package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reservio/pkg/config"
	"reservio/pkg/middleware"
)

// RouteRegistrar is implemented by every handler that mounts routes on
// the shared router.
type RouteRegistrar interface {
	RegisterRoutes(router *httprouter.Router)
}

type Application struct {
	cfg         *config.Config
	server      *http.Server
	rateLimiter *middleware.ClientRateLimiter
	shutdownFns []func()
}

func New(cfg *config.Config, health RouteRegistrar, handlers ...RouteRegistrar) *Application {
	a := &Application{cfg: cfg}
	a.setServer(a.healthHandler(health), a.apiHandler(handlers))
	return a
}

// OnShutdown registers a cleanup hook run during graceful shutdown,
// after the HTTP server has stopped accepting requests.
func (a *Application) OnShutdown(fn func()) {
	a.shutdownFns = append(a.shutdownFns, fn)
}

// Health endpoints bypass rate limiting and timeouts so orchestrators
// always get an answer.
func (a *Application) healthHandler(health RouteRegistrar) http.Handler {
	router := httprouter.New()
	health.RegisterRoutes(router)

	var handler http.Handler = router
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	return handler
}

func (a *Application) apiHandler(handlers []RouteRegistrar) http.Handler {
	router := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	a.rateLimiter = middleware.NewClientRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		a.cfg.Log,
	)
	metrics := middleware.NewHTTPMetrics(prometheus.DefaultRegisterer)

	var handler http.Handler = router
	handler = middleware.RequestTimeout(a.cfg.RequestTimeout)(handler)
	handler = middleware.RateLimit(a.rateLimiter)(handler)
	handler = middleware.ContentTypeValidation(a.cfg.Log)(handler)
	handler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(handler)
	handler = middleware.Metrics(metrics)(handler)
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	return handler
}

func (a *Application) setServer(health, api http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/health", health)
	mux.Handle("/ready", health)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.rateLimiter.Stop()
	for _, fn := range a.shutdownFns {
		fn()
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
