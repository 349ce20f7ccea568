package server

import (
	"encoding/json"
	"net/http"

	"github.com/poco-ai/poco-console/internals/schemas"
)

type RenderOption = func(w http.ResponseWriter, r *http.Request)

type Renderer struct {
}

func (r *Renderer) Status(status int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

var Render = Renderer{}

func RenderJSON(w http.ResponseWriter, r *http.Request, payload any, opts ...RenderOption) {
	w.Header().Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(w, r)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func renderData[T any](w http.ResponseWriter, r *http.Request, data T) {
	RenderJSON(w, r, schemas.Success(data))
}

var statusForCode = map[schemas.ResponseCode]int{
	schemas.CodeBadRequest:       http.StatusBadRequest,
	schemas.CodeValidationFailed: http.StatusBadRequest,
	schemas.CodeInvalidJSON:      http.StatusBadRequest,
	schemas.CodeNotFound:         http.StatusNotFound,
	schemas.CodeInternal:         http.StatusInternalServerError,
	schemas.CodeDatabase:         http.StatusInternalServerError,
}

func renderError(w http.ResponseWriter, r *http.Request, code schemas.ResponseCode, message string, details map[string][]string) {
	status, ok := statusForCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	RenderJSON(w, r, schemas.Failure(code, message, details), Render.Status(status))
}

func renderValidation(w http.ResponseWriter, r *http.Request, details map[string][]string) {
	renderError(w, r, schemas.CodeValidationFailed, "Schema validation failed", details)
}
