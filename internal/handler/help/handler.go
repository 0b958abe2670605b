package help

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/help"
	"github.com/zhouzirui/pill-reminder/backend/pkg/utils"
)

// Handler serves the static help content.
type Handler struct {
	content help.Store
}

// New creates the help handler.
func New(content help.Store) *Handler {
	return &Handler{
		content: content,
	}
}

// RegisterRoutes mounts the help routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ai/quick-tips", h.handleQuickTips)
	r.Get("/ai/app-help", h.handleAppHelp)
	r.Get("/ai/app-help/{topic}", h.handleAppHelpTopic)
}

func (h *Handler) handleQuickTips(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"tips": h.content.Tips()})
}

func (h *Handler) handleAppHelp(w http.ResponseWriter, r *http.Request) {
	topics := lo.SliceToMap(h.content.Topics(), func(t help.Topic) (string, help.Topic) {
		return t.Key, t
	})
	utils.RespondJSON(w, http.StatusOK, map[string]map[string]help.Topic{"helpTopics": topics})
}

func (h *Handler) handleAppHelpTopic(w http.ResponseWriter, r *http.Request) {
	topic, ok := h.content.FindTopic(chi.URLParam(r, "topic"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "help topic not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, topic)
}
