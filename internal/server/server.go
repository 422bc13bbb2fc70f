package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkease/internal/analytics"
	"parkease/internal/facility"
	"parkease/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(port string, controller *facility.InstrumentedController, reporter *analytics.Reporter) *Server {
	handler := NewHandler(controller, reporter)

	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(TracingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/facility", func(r chi.Router) {
		r.Get("/", handler.GetFacility)
		r.Get("/render", handler.GetRender)
		r.Post("/reload", handler.Reload)

		r.Post("/spots", handler.CreateSpot)
		r.Delete("/spots", handler.DeleteSpot)
		r.Get("/spots/{spotID}/status", handler.GetSpotStatus)

		r.Post("/entries", handler.NewEntry)
		r.Post("/exits", handler.NewExit)
		r.Post("/bookings", handler.NewBooking)

		r.Get("/premium", handler.ListPremium)
		r.Post("/premium", handler.RegisterPremium)
		r.Delete("/premium/{plate}", handler.UnregisterPremium)

		r.Get("/reports/usage", handler.GetUsageReport)
		r.Get("/reports/payments", handler.GetPaymentsReport)
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func (s *Server) Start() error {
	logging.Info(context.Background()).Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx).Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
