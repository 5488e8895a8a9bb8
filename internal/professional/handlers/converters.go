package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/gartstein/professionals/internal/professional/models"
	"go.uber.org/zap"
)

const maxJSONBodyBytes = 10 << 20

var errNotAList = errors.New("expected a list of profiles")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Detail string          `json:"detail"`
	Errors []e.FieldError `json:"errors,omitempty"`
}

// decodeJSON reads the request body as a generic JSON value.
func decodeJSON(w http.ResponseWriter, r *http.Request) (any, []byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read body: %v", e.ErrInvalidInput, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, nil, fmt.Errorf("%w: JSON parse error: %v", e.ErrInvalidInput, err)
	}
	if dec.More() {
		return nil, nil, fmt.Errorf("%w: JSON parse error: trailing data", e.ErrInvalidInput)
	}
	return v, raw, nil
}

// toInput checks the shape of a decoded profile and converts it.
func toInput(v any, raw []byte) (models.ProfessionalInput, error) {
	var in models.ProfessionalInput
	if err := checkProfileShape(v); err != nil {
		return in, err
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	return in, nil
}

// toBulkRecords splits a bulk payload into records. A malformed entry becomes
// a record carrying its error so the batch still reports it.
func toBulkRecords(v any, raw []byte) ([]models.BulkRecord, error) {
	entries, ok := v.([]any)
	if !ok {
		return nil, errNotAList
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) != len(entries) {
		return nil, errNotAList
	}

	records := make([]models.BulkRecord, len(items))
	for i := range items {
		in, err := toInput(entries[i], items[i])
		records[i] = models.BulkRecord{Input: in, Err: err}
	}
	return records, nil
}

// listOptions reads the source and include_resume query parameters.
func listOptions(r *http.Request) models.ListOptions {
	q := r.URL.Query()
	opts := models.ListOptions{IncludeResume: parseFlag(q.Get("include_resume"))}
	if source := strings.TrimSpace(q.Get("source")); source != "" {
		s := models.Source(source)
		opts.Source = &s
	}
	return opts
}

// parseFlag accepts true, 1 and t in any case.
func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "t":
		return true
	}
	return false
}

func parseID(pathParams map[string]string) (uint64, error) {
	id, err := strconv.ParseUint(pathParams["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, e.ErrNotFound
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain and repository errors to HTTP responses.
func (h *ProfessionalHandler) writeError(w http.ResponseWriter, err error) {
	if v, ok := e.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: v.Error(), Errors: v.Fields})
		return
	}

	switch {
	case errors.Is(err, errNotAList):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Expected a list of profiles."})
	case errors.Is(err, e.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not found."})
	case errors.Is(err, e.ErrMissingFile):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Missing resume file."})
	case errors.Is(err, e.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: err.Error()})
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal server error"})
	}
}
