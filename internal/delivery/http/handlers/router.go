package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/dispute"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Pinger reports whether the order store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	RequestTimeout 	time.Duration
	// Gatherer backs /metrics; the endpoint is not mounted when nil.
	Gatherer 		prometheus.Gatherer
	// Store is pinged by /health. Nil reports healthy.
	Store 			Pinger
}

func NewRouter(engine lifecycle.Engine, manager dispute.Manager, cfg RouterConfig) http.Handler {
	orders := NewOrderHandler(engine)
	disputes := NewDisputeHandler(manager)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", health(cfg.Store))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(RequireActor, RequireRole(domain.RoleSystem)).Post("/", orders.CreateOrder)
			r.Get("/", orders.ListOrders)
			r.Route("/{order_id}", func(r chi.Router) {
				r.Get("/", orders.GetOrder)
				r.Get("/audit", orders.GetAuditTrail)
				r.Get("/replay", orders.ReplayStatus)
				r.Get("/dispute", disputes.GetDispute)
				r.With(RequireActor).Post("/dispute", disputes.OpenDispute)
				r.With(RequireActor).Post("/actions/{action}", orders.ApplyAction)
			})
		})
		r.Get("/listings/{listing_id}/reviews", orders.ListReviews)

		r.Route("/disputes", func(r chi.Router) {
			r.Get("/", disputes.ListCases)
			r.Route("/{case_id}", func(r chi.Router) {
				r.Get("/", disputes.GetCase)
				r.With(RequireActor).Post("/evidence", disputes.AddEvidence)
				r.With(RequireActor).Post("/review", disputes.TakeUnderReview)
				r.With(RequireActor).Post("/resolve", disputes.Resolve)
			})
		})
	})

	return otelhttp.NewHandler(r, "order-service")
}

func health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				slog.Warn("health check failed", "error", err)
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
