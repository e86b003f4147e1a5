package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/graphpad/pkg/engine"
	"github.com/matzehuels/graphpad/pkg/errors"
	"github.com/matzehuels/graphpad/pkg/record"
)

// apiError is the JSON error payload: a code, a message, and for validation
// failures a field→message map.
type apiError struct {
	Code    errors.Code       `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// writeJSON writes v as a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError maps an error to a JSON payload and status code.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	payload := apiError{
		Code:    errors.GetCode(err),
		Message: errors.UserMessage(err),
	}

	var verr *errors.ValidationErrors
	if stderrors.As(err, &verr) && !verr.Empty() {
		payload.Code = "VALIDATION_FAILED"
		payload.Errors = verr.Fields
	}
	if payload.Code == "" {
		payload.Code = errors.ErrCodeInternal
	}

	s.writeJSON(w, status, payload)
}

// apiEngines lists the supported layout engines.
func (s *Server) apiEngines(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, engine.Engines())
}

// apiList returns all records in board order.
func (s *Server) apiList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.board.List(r.Context()))
}

// apiGet returns one record.
func (s *Server) apiGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.board.Get(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeRecordNotFound, "no such graph"))
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// apiCreate appends a record from a JSON draft. Validation failure returns
// 422 with the field map and appends nothing.
func (s *Server) apiCreate(w http.ResponseWriter, r *http.Request) {
	var draft record.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidSource, err, "malformed JSON body"))
		return
	}

	rec, err := s.board.Add(r.Context(), draft)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

// sourcePatch is the request body for apiUpdateSource.
type sourcePatch struct {
	Source string `json:"source"`
}

// updateResult reports the committed record and whether the save changed it.
type updateResult struct {
	Record  *record.Record `json:"record"`
	Changed bool           `json:"changed"`
}

// apiUpdateSource replaces one record's source. Unchanged sources commit as
// a no-op with changed=false.
func (s *Server) apiUpdateSource(w http.ResponseWriter, r *http.Request) {
	var patch sourcePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidSource, err, "malformed JSON body"))
		return
	}

	rec, changed, err := s.board.UpdateSource(r.Context(), chi.URLParam(r, "id"), patch.Source)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, updateResult{Record: rec, Changed: changed})
	case errors.Is(err, errors.ErrCodeRecordNotFound):
		s.writeError(w, http.StatusNotFound, err)
	default:
		s.writeError(w, http.StatusUnprocessableEntity, err)
	}
}

// apiDelete removes a record. Idempotent: deleting an absent id is 204 too.
func (s *Server) apiDelete(w http.ResponseWriter, r *http.Request) {
	s.board.Remove(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
