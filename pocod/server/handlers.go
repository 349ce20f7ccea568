package server

import (
	"context"
	"net/http"

	"github.com/poco-ai/poco-console/internals/reqlog"
	"github.com/poco-ai/poco-console/internals/schemas"
	"github.com/poco-ai/poco-console/internals/timeouts"
)

type versionResponse struct {
	Version string `json:"version"`
}

func (s *Server) HandlerVersion(w http.ResponseWriter, r *http.Request) {
	renderData(w, r, versionResponse{Version: s.Config.Version})
}

func (s *Server) HandlerShutdown(w http.ResponseWriter, r *http.Request) {
	renderData[any](w, r, nil)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			s.Logger.Error("Shutdown failed", "error", err)
		}
	}()
}

func (s *Server) HandlerNotFound(w http.ResponseWriter, r *http.Request) {
	reqlog.FromContext(r.Context()).Warn("route not found")
	renderError(w, r, schemas.CodeNotFound, "Not found", nil)
}
