// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// maxCheckBody caps the request body; free-text symptom descriptions are
// short and anything larger is a malformed client.
const maxCheckBody = 64 << 10

// CheckHandler handles triage check requests
type CheckHandler struct {
	deps Dependencies
}

// NewCheckHandler creates a new check handler
func NewCheckHandler(deps Dependencies) *CheckHandler {
	return &CheckHandler{deps: deps}
}

// HandleCheck handles POST /check requests. A well-formed request
// always gets a 200 with a decision; the pipeline itself never fails a
// request, it degrades stage by stage instead.
func (h *CheckHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_check"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCheckBody)
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	d := h.deps.Check(r.Context(), req.Symptoms)
	writeJSON(w, http.StatusOK, d)
}
