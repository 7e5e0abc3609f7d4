// ABOUTME: JSON API handlers for trapps, auth tokens, and rules
// ABOUTME: Each handler acquires a connection, runs the store op, and encodes the result

package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/solatis/trapperkeeper/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// storeError maps store sentinels to HTTP status codes.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrTrappNotFound):
		writeJSONError(w, http.StatusNotFound, "trapp not found")
	case errors.Is(err, store.ErrAcquireTimeout):
		writeJSONError(w, http.StatusServiceUnavailable, "database busy")
	default:
		s.logger.Error("store operation failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathInt64(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// --- trapps ---

type createTrappRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateTrapp(w http.ResponseWriter, r *http.Request) {
	var req createTrappRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	id, err := store.CreateTrapp(r.Context(), conn, req.Name)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Trapp{ID: id, Name: req.Name})
}

func (s *Server) handleListTrapps(w http.ResponseWriter, r *http.Request) {
	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	trapps, err := store.GetTrapps(r.Context(), conn)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trapps)
}

func (s *Server) handleGetTrapp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "trapp_id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid trapp id")
		return
	}

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	trapp, err := store.GetTrapp(r.Context(), conn, id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trapp)
}

func (s *Server) handleDeleteTrapp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "trapp_id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid trapp id")
		return
	}

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	// Deleting an absent trapp is not an error.
	if _, err := store.DeleteTrapp(r.Context(), conn, id); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- auth tokens ---

type createAuthTokenRequest struct {
	TrappID int64  `json:"trapp_id"`
	Name    string `json:"name"`
}

func (s *Server) handleCreateAuthToken(w http.ResponseWriter, r *http.Request) {
	trappID, ok := pathInt64(r, "trapp_id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid trapp id")
		return
	}

	var req createAuthTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.TrappID != trappID {
		writeJSONError(w, http.StatusBadRequest, "trapp id in body does not match path")
		return
	}

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	id, err := store.CreateAuthToken(r.Context(), conn, trappID, req.Name)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.AuthToken{ID: id, TrappID: trappID, Name: req.Name})
}

func (s *Server) handleListAuthTokens(w http.ResponseWriter, r *http.Request) {
	trappID, ok := pathInt64(r, "trapp_id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid trapp id")
		return
	}

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	toks, err := store.GetAuthTokensByTrapp(r.Context(), conn, trappID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toks)
}

func (s *Server) handleGetAuthTokenScoped(w http.ResponseWriter, r *http.Request) {
	trappID, ok := pathInt64(r, "trapp_id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid trapp id")
		return
	}
	tokenID := r.PathValue("auth_token_id")

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	tok, err := store.GetAuthTokenByTrapp(r.Context(), conn, trappID, tokenID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (s *Server) handleDeleteAuthTokenScoped(w http.ResponseWriter, r *http.Request) {
	trappID, ok := pathInt64(r, "trapp_id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid trapp id")
		return
	}
	tokenID := r.PathValue("auth_token_id")

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	if _, err := store.DeleteAuthTokenByTrapp(r.Context(), conn, trappID, tokenID); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAuthToken(w http.ResponseWriter, r *http.Request) {
	tokenID := r.PathValue("auth_token_id")

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	tok, err := store.GetAuthToken(r.Context(), conn, tokenID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (s *Server) handleDeleteAuthToken(w http.ResponseWriter, r *http.Request) {
	tokenID := r.PathValue("auth_token_id")

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	if _, err := store.DeleteAuthToken(r.Context(), conn, tokenID); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- rules ---

type createRuleRequest struct {
	Type       store.RuleType `json:"type"`
	Name       string         `json:"name"`
	TrappID    *int64         `json:"trapp_id,omitempty"`
	FieldKey   *string        `json:"field_key,omitempty"`
	FieldValue *string        `json:"field_value,omitempty"`
}

// ruleResponse flattens the rule variants into one JSON shape. Fields not
// carried by a variant are omitted.
type ruleResponse struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Type       store.RuleType `json:"type"`
	TrappID    *int64         `json:"trapp_id,omitempty"`
	FieldKey   *string        `json:"field_key,omitempty"`
	FieldValue *string        `json:"field_value,omitempty"`
}

func ruleToResponse(rule store.Rule) ruleResponse {
	resp := ruleResponse{
		ID:   rule.Header().ID,
		Name: rule.Header().Name,
		Type: rule.Type(),
	}
	switch r := rule.(type) {
	case store.FilterTrappRule:
		resp.TrappID = &r.TrappID
	case store.FilterFieldRule:
		resp.FieldKey = &r.FieldKey
		resp.FieldValue = &r.FieldValue
	}
	return resp
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	var newRule store.NewRule
	switch req.Type {
	case store.RuleTypeFilterTrapp:
		if req.TrappID == nil {
			writeJSONError(w, http.StatusBadRequest, "trapp_id is required for a trapp filter")
			return
		}
		newRule = store.NewFilterTrappRule{Name: req.Name, TrappID: *req.TrappID}
	case store.RuleTypeFilterField:
		if req.FieldKey == nil || req.FieldValue == nil {
			writeJSONError(w, http.StatusBadRequest, "field_key and field_value are required for a field filter")
			return
		}
		newRule = store.NewFilterFieldRule{Name: req.Name, FieldKey: *req.FieldKey, FieldValue: *req.FieldValue}
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown rule type")
		return
	}

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	id, err := store.CreateRule(r.Context(), conn, newRule)
	if err != nil {
		s.storeError(w, err)
		return
	}

	// The response reflects the stored variant, not whatever optional
	// fields the request happened to carry.
	resp := ruleResponse{ID: id, Name: req.Name, Type: req.Type}
	switch nr := newRule.(type) {
	case store.NewFilterTrappRule:
		resp.TrappID = &nr.TrappID
	case store.NewFilterFieldRule:
		resp.FieldKey = &nr.FieldKey
		resp.FieldValue = &nr.FieldValue
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer conn.Close()

	rules, err := store.ListRules(r.Context(), conn)
	if err != nil {
		s.storeError(w, err)
		return
	}
	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, ruleToResponse(rule))
	}
	writeJSON(w, http.StatusOK, resp)
}
