package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/poco-ai/poco-console/internals/reqlog"
	"github.com/poco-ai/poco-console/internals/schemas"
)

// MiddlewareLogger tags every request with request and trace ids, echoes
// them as response headers and writes one log record when it finishes.
func (s *Server) MiddlewareLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := reqlog.IDsFromRequest(r)
		w.Header().Set(reqlog.HeaderRequestID, ids.RequestID)
		w.Header().Set(reqlog.HeaderTraceID, ids.TraceID)

		logger := reqlog.New(
			slog.String("request_id", ids.RequestID),
			slog.String("trace_id", ids.TraceID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		ctx := reqlog.WithContext(r.Context(), logger)
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("panic", slog.Any("error", recovered), slog.String("stack", string(debug.Stack())))
				if recorder.status == 0 {
					RenderJSON(recorder, r, schemas.Failure(schemas.CodeInternal, "Internal server error", nil), Render.Status(http.StatusInternalServerError))
				}
			}

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Add(slog.Int("status", status), slog.Duration("duration", time.Since(start)))
			logger.Emit(ctx, s.Logger, "request")
		}()

		next.ServeHTTP(recorder, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}
