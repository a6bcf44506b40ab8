package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func NewHandler(requestHandler *RequestHandler, voteHandler *VoteHandler, logger zerolog.Logger, adminToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", requestHandler.ListRequests)
			r.Post("/", requestHandler.SubmitRequest)
			r.Get("/{id}", requestHandler.GetRequest)
			r.Post("/{id}/vote", voteHandler.ToggleVote)

			r.With(RequireAdminToken(adminToken)).Patch("/{id}/status", requestHandler.UpdateStatus)
		})
	})

	return r
}
