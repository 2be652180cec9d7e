package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"playtesting-bot/internal/app"
)

// NewRouter wires the health check, the latest-digest lookup and the live feed.
func NewRouter(hub *app.DigestHub, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/digests/{questionID}", func(w http.ResponseWriter, r *http.Request) {
		digest, ok := hub.Latest(chi.URLParam(r, "questionID"))
		if !ok {
			http.Error(w, "no results yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(digest)
	})

	r.Get("/ws", NewWSHandler(hub, log).ServeWS)
	return r
}
