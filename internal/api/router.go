package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Router builds the HTTP surface. ws, when non-nil, serves live tally updates.
func (a *App) Router(ws http.Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(MaxBodyBytes))

	r.Post("/voting/open", a.OpenVotingHandler)
	r.Post("/voting/close", a.CloseVotingHandler)
	r.Get("/voting/status", a.VotingStatusHandler)

	r.Post("/options", a.AddOptionHandler)
	r.Get("/options", a.ListOptionsHandler)
	r.Get("/options/{id}", a.GetOptionHandler)
	r.Get("/options/{id}/votes", a.VoteCountHandler)

	r.Post("/votes", a.VoteHandler)
	r.Get("/voters/{address}", a.HasVotedHandler)
	r.Get("/winner", a.WinnerHandler)

	if ws != nil {
		r.Handle("/ws/tally", ws)
	}

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}
