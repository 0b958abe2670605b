package chat

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	chatService "github.com/zhouzirui/pill-reminder/backend/internal/service/chat"
	"github.com/zhouzirui/pill-reminder/backend/pkg/utils"
)

var errLimit = errors.New("limit must be a non-negative integer")

// Handler serves the AI chat, recommendation and history endpoints.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the chat routes under the /api router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ai/chat", h.handleChat)
	r.Post("/ai/chat/stream", h.handleChatStream)
	r.Post("/ai/recommendations", h.handleRecommendations)

	// Both spellings are served; older clients use the hyphenated one.
	for _, prefix := range []string{"/ai/chat/history", "/ai/chat-history"} {
		r.Get(prefix+"/{sessionID}", h.handleGetHistory)
		r.Delete(prefix+"/{sessionID}", h.handleClearHistory)
	}
}

type historyResponse struct {
	SessionID string          `json:"sessionId"`
	Messages  []chat.Exchange `json:"messages"`
}

type clearResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatService.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chatSvc.Chat(r.Context(), req)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req chatService.RecommendationRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chatSvc.Recommend(r.Context(), req)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// handleChatStream answers with SSE events: start, delta (repeated),
// message, end. Failures after the stream opened are sent as an error event.
func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var req chatService.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	started := false
	onStart := func(sessionID string) {
		started = true
		utils.SetupSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		utils.SendSSEEvent(w, flusher, "start", map[string]string{"sessionId": sessionID})
	}
	onDelta := func(text string) {
		utils.SendSSEEvent(w, flusher, "delta", map[string]string{"content": text})
	}

	reply, err := h.chatSvc.ChatStream(r.Context(), req, onStart, onDelta)
	if err != nil {
		if !started {
			respondChatError(w, err)
			return
		}
		log.Printf("[stream] chat stream failed: %v", err)
		utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": utils.ServiceErrorMessage(err)})
		return
	}

	utils.SendSSEEvent(w, flusher, "message", reply)
	utils.SendSSEEvent(w, flusher, "end", map[string]bool{"finished": true})
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.chatSvc.History(r.Context(), sessionID, limit)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Messages: messages})
}

func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	deleted, err := h.chatSvc.ClearHistory(r.Context(), sessionID)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, clearResponse{
		Message:   fmt.Sprintf("Deleted %d messages", deleted),
		SessionID: sessionID,
	})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return chatService.DefaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errLimit
	}
	return limit, nil
}

func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrMessageRequired),
		errors.Is(err, chatService.ErrInvalidRequest),
		errors.Is(err, chatService.ErrSessionRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrAIUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		utils.RespondServiceError(w, err)
	}
}
