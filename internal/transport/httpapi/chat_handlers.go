package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/chat"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
)

type chatHandlers struct {
	pipeline *chat.Pipeline
	registry *session.Registry
}

func newChatHandlers(pipeline *chat.Pipeline, registry *session.Registry) *chatHandlers {
	return &chatHandlers{pipeline: pipeline, registry: registry}
}

type queryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	RequestID int    `json:"request_id"`
}

type queryResponse struct {
	Answer       string `json:"answer"`
	GeneratedSQL string `json:"generated_sql,omitempty"`
	RowCount     int    `json:"row_count"`
	QueryType    string `json:"query_type,omitempty"`
	SessionID    string `json:"session_id"`
}

func (h *chatHandlers) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result := h.pipeline.ProcessTurn(r.Context(), sessionID, req.Question, req.RequestID)

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:       result.Answer,
		GeneratedSQL: result.GeneratedQuery,
		RowCount:     result.RowCount,
		QueryType:    result.Category,
		SessionID:    sessionID,
	})
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

func (h *chatHandlers) clearSession(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	h.registry.Clear(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Session " + req.SessionID + " cleared",
	})
}

func (h *chatHandlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"active_sessions": h.registry.Len(),
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}
