package responder

import (
	"net/http"

	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/leeforge/plugincatalog/http/middleware"
	"github.com/leeforge/plugincatalog/json"
)

func newMeta(r *http.Request, opts ...Option) Meta {
	meta := Meta{}
	if r != nil {
		meta.TraceId = middleware.GetTraceID(r.Context())
		meta.Took = middleware.GetRequestDuration(r.Context())
	}
	for _, opt := range opts {
		opt(&meta)
	}
	return meta
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"internal","code":"INTERNAL_ERROR","message":"encode failed"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// Write sends data with status.
func Write(w http.ResponseWriter, r *http.Request, status int, data any, opts ...Option) {
	writeJSON(w, status, &Response{
		Data: data,
		Meta: newMeta(r, opts...),
	})
}

// OK responds with 200 and data.
func OK(w http.ResponseWriter, r *http.Request, data any, opts ...Option) {
	Write(w, r, http.StatusOK, data, opts...)
}

// WriteError maps err onto its HTTP status and error body. Errors that are
// not AppErrors become 500s.
func WriteError(w http.ResponseWriter, r *http.Request, err error, opts ...Option) {
	resp := apperrors.ToHTTPResponse(err)
	writeJSON(w, resp.HTTPStatus, &Response{
		Error: &resp.Error,
		Meta:  newMeta(r, opts...),
	})
}

// NotFound responds with 404 for resource id.
func NotFound(w http.ResponseWriter, r *http.Request, resource string, id any) {
	WriteError(w, r, apperrors.NewNotFound(resource, id))
}

// BadRequest responds with 400 and message.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, apperrors.NewValidation(message))
}
