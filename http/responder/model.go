package responder

import apperrors "github.com/leeforge/plugincatalog/errors"

// Response is the envelope of every catalog API response.
type Response struct {
	Data  any                      `json:"data,omitempty"`
	Error *apperrors.ErrorResponse `json:"error,omitempty"`
	Meta  Meta                     `json:"meta"`
}

// Meta carries request bookkeeping.
type Meta struct {
	TraceId string `json:"traceId,omitempty"`
	Took    int64  `json:"took,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

type Option func(*Meta)

func WithTotal(n int) Option {
	return func(m *Meta) {
		m.Total = &n
	}
}
