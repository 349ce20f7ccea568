package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poco-ai/poco-console/internals/reqlog"
	"github.com/poco-ai/poco-console/internals/schemas"
)

func (s *Server) HandlerSharedFiles(w http.ResponseWriter, r *http.Request) {
	renderData(w, r, sharedFiles())
}

func (s *Server) HandlerSessionFiles(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	snapshot := s.sim.Snapshot(seedOf(*record), record.Progress)
	var artifacts []schemas.Artifact
	if snapshot.StatePatch != nil {
		artifacts = snapshot.StatePatch.Artifacts
	}
	renderData(w, r, sessionFiles(record.ID, artifacts))
}

// HandlerWorkspaceArchive returns where the archive can be downloaded. Both
// fields are null until the session finished.
func (s *Server) HandlerWorkspaceArchive(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if record.Progress < 100 {
		renderData(w, r, schemas.WorkspaceArchive{})
		return
	}
	url := fmt.Sprintf("%s/sessions/%s/workspace/archive.zip", requestBaseURL(r), record.ID)
	filename := archiveFilename(record.ID)
	renderData(w, r, schemas.WorkspaceArchive{URL: &url, Filename: &filename})
}

func (s *Server) HandlerWorkspaceArchiveZip(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if record.Progress < 100 {
		renderError(w, r, schemas.CodeNotFound, "Archive not ready", nil)
		return
	}

	var buf bytes.Buffer
	snapshot := s.sim.Snapshot(seedOf(*record), record.Progress)
	if err := writeArchive(&buf, snapshot, record.CreatedAt); err != nil {
		reqlog.FromContext(r.Context()).Error("build archive", slog.Any("error", err))
		renderError(w, r, schemas.CodeInternal, "Failed to build archive", nil)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, archiveFilename(record.ID)))
	_, _ = w.Write(buf.Bytes())
}

func archiveFilename(sessionID string) string {
	return fmt.Sprintf("workspace-%s.zip", sessionID)
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}
