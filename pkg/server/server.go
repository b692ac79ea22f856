package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/handlers/prices"
	pricefeedmiddleware "github.com/gpu-yield/price-feed/pkg/server/middleware"
	"github.com/gpu-yield/price-feed/pkg/services/pricing"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server

	shutdownTimeout time.Duration
}

type Dependencies struct {
	Pricing *pricing.Service
	Feed    feed.Store
	Status  status.Store
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// ConfigureRouter mounts every price feed route on a fresh chi router. It is
// split from NewWebAPI so tests can exercise the routes without binding a
// port.
func ConfigureRouter(logger *zerolog.Logger, deps Dependencies) *chi.Mux {
	handler := prices.NewHandler(deps.Pricing, deps.Feed, deps.Status)

	router := chi.NewRouter()

	router.Use(pricefeedmiddleware.Logger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/health", handler.Health)
	router.Get("/delta", handler.Delta)
	router.Post("/roi", handler.ROI)
	router.Get("/stats", handler.Stats)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/aws-spot", func(r chi.Router) {
		r.Get("/prices", handler.AWSSpotPrices)
		r.Get("/regions", handler.AWSRegions)
		r.Get("/models", handler.AWSModels)
		r.Get("/summary", handler.AWSSummary)
	})

	router.Route("/akash", func(r chi.Router) {
		r.Get("/prices", handler.AkashPrices)
		r.Get("/models", handler.AkashModels)
		r.Get("/summary", handler.AkashSummary)
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(&logger, config.Dependencies)

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
