// Package server exposes the chat core over HTTP: the chat endpoint,
// session CRUD, sequence and transcript reads, and the WebSocket push
// channel.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"helix/internal/chat"
	"helix/internal/logging"
	"helix/internal/store"
	"helix/internal/types"
)

// Handler holds the HTTP surface's dependencies.
type Handler struct {
	store *store.Store
	orch  *chat.Orchestrator
	hub   http.Handler
}

// NewHandler creates the HTTP handler set. hub may be nil when WebSocket
// push is disabled.
func NewHandler(s *store.Store, orch *chat.Orchestrator, hub http.Handler) *Handler {
	return &Handler{store: s, orch: orch, hub: hub}
}

// Router assembles the chi router with middleware and all routes.
func (h *Handler) Router(allowedOrigin string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	r.Use(corsMiddleware(allowedOrigin))

	r.Post("/chat", h.handleChat)
	r.Post("/sessions", h.handleCreateSession)
	r.Delete("/sessions/{id}", h.handleDeleteSession)
	r.Get("/sessions/{id}/sequence", h.handleGetSequence)
	r.Get("/sessions/{id}/messages", h.handleGetMessages)

	if h.hub != nil {
		r.Get("/ws", h.hub.ServeHTTP)
	}

	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Server("failed to encode response: %v", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		Error(w, http.StatusBadRequest, "no message provided")
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "no session_id provided")
		return
	}

	result, err := h.orch.HandleTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		logging.Server("chat turn failed for session %s: %v", req.SessionID, err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result.Sequence == nil {
		result.Sequence = []types.SequenceStep{}
	}
	JSON(w, http.StatusOK, result)
}

type createSessionRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	session, err := h.store.CreateSession(req.UserID)
	if err != nil {
		logging.Server("session create failed: %v", err)
		Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	JSON(w, http.StatusCreated, session)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteSession(id); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		logging.Server("session delete failed: %v", err)
		Error(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSequence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetSession(id); err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	steps, err := h.store.ListSteps(id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to read sequence")
		return
	}
	if steps == nil {
		steps = []types.SequenceStep{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"session_id": id, "sequence": steps})
}

func (h *Handler) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetSession(id); err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	messages, err := h.store.ListMessages(id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to read messages")
		return
	}
	if messages == nil {
		messages = []types.Message{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"session_id": id, "messages": messages})
}
