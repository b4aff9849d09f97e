// Package server assembles the engine's HTTP surface and starts the server.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/event"
	"github.com/dynamicaqs/crm-engine/internal/feed"
	"github.com/dynamicaqs/crm-engine/internal/handler"
	"github.com/dynamicaqs/crm-engine/internal/history"
	"github.com/dynamicaqs/crm-engine/internal/notification"
	"github.com/dynamicaqs/crm-engine/internal/preference"
)

// Config holds server configuration and wired dependencies.
type Config struct {
	Port      int
	Store     notification.Store
	Prefs     *preference.Store
	Scheduler *escalation.Scheduler
	Recorder  event.Recorder
	Hub       *feed.Hub
	History   *history.Store
	RulesPath string
}

// Run starts the HTTP server with all routes registered and shuts it down
// when the context is cancelled.
func Run(ctx context.Context, cfg Config) error {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	nh := handler.NewNotificationHandler(cfg.Store, cfg.Scheduler)
	ph := handler.NewPreferenceHandler(cfg.Prefs)
	sh := handler.NewScoreHandler()
	eh := handler.NewEscalationHandler(cfg.Scheduler, cfg.History, cfg.RulesPath)
	evh := handler.NewEventHandler(cfg.Recorder)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", nh.List)
			r.Post("/", nh.Create)
			r.Get("/{id}", nh.Get)
			r.Post("/{id}/read", nh.MarkRead)
			r.Post("/{id}/archive", nh.Archive)
			r.Delete("/{id}", nh.Delete)
		})

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/{userId}", ph.Get)
			r.Put("/{userId}", ph.Put)
			r.Post("/{userId}/preview", ph.Preview)
		})

		r.Post("/leads/{leadId}/score", sh.Compute)

		r.Route("/escalation", func(r chi.Router) {
			r.Get("/rules", eh.Rules)
			r.Post("/rules/reload", eh.Reload)
			r.Get("/pairings", eh.Pairings)
			r.Get("/history", eh.History)
			r.Post("/tick", eh.Tick)
		})

		r.Post("/events/{type}", evh.Ingest)

		if cfg.Hub != nil {
			r.Get("/feed", cfg.Hub.ServeHTTP)
		}
	})

	wrapped := handler.Recovery(handler.Logging(r))

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("starting server on %s", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: wrapped,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
