package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/query"
)

const (
	maxBodyBytes = 1 << 20

	// EmptyExportWarning is the body of the 422 returned when a CSV export
	// matches nothing.
	EmptyExportWarning = "No subscriptions to export."
)

type errorBody struct {
	Error string `json:"error"`
}

type warningBody struct {
	Warning string `json:"warning"`
}

// parseCriteria reads the list filters: q (name), status and renewal.
// Unknown status and renewal values are rejected.
func parseCriteria(r *http.Request) (query.Criteria, error) {
	q := r.URL.Query()
	c := query.Criteria{Name: q.Get("q")}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" && !strings.EqualFold(raw, query.StatusAll) {
		status, err := core.ParseStatus(raw)
		if err != nil {
			return query.Criteria{}, &core.ValidationError{Field: "status", Reason: core.ReasonUnknownValue, Value: raw}
		}
		c.Status = status.String()
	}

	bucket, ok := query.ParseBucket(q.Get("renewal"))
	if !ok {
		return query.Criteria{}, &core.ValidationError{Field: "renewal", Reason: core.ReasonUnknownValue, Value: q.Get("renewal")}
	}
	c.Renewal = bucket
	return c, nil
}

// decodeJSON reads a size-limited JSON body into v. On failure it writes a
// 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid JSON body"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			msg = "request body too large"
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
		return false
	}
	return true
}

// writeError maps domain errors to status codes. Anything unrecognized is
// logged and reported as a bare 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.DebugContext(ctx, "Request rejected", log.FieldError, err, log.FieldErrorType, log.ErrorTypeValidation)
		writeJSON(w, http.StatusUnprocessableEntity, verr)
	case errors.Is(err, core.ErrNotFound):
		logger.DebugContext(ctx, "Request rejected", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNotFound)
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrEmptyExport):
		writeJSON(w, http.StatusUnprocessableEntity, warningBody{Warning: EmptyExportWarning})
	default:
		fields := log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
			WithErrorType(log.ErrorTypeInternal)
		log.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, log.ComponentHTTP, r.Pattern, fields)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAttachment sends data as a download named filename.
func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
