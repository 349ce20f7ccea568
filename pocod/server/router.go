package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.MiddlewareLogger)
	r.NotFound(s.HandlerNotFound)
	r.Get("/version", s.HandlerVersion)
	r.Post("/shutdown", s.HandlerShutdown)
	r.Get("/files", s.HandlerSharedFiles)
	r.Post("/sessions", s.HandlerCreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.HandlerGetSession)
		r.Get("/messages", s.HandlerListMessages)
		r.Post("/messages", s.HandlerSendMessage)
		r.Get("/files", s.HandlerSessionFiles)
		r.Get("/workspace/archive", s.HandlerWorkspaceArchive)
		r.Get("/workspace/archive.zip", s.HandlerWorkspaceArchiveZip)
	})
	return r
}
