package status

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/status"
	"github.com/zhouzirui/pill-reminder/backend/internal/store"
	"github.com/zhouzirui/pill-reminder/backend/pkg/utils"
)

// MaxListedChecks caps GET /status.
const MaxListedChecks = 1000

// Handler serves the root greeting and status check endpoints.
type Handler struct {
	checks store.StatusStore
	now    func() time.Time
}

// New creates the status handler.
func New(checks store.StatusStore) *Handler {
	return &Handler{
		checks: checks,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes mounts the status routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Post("/status", h.handleCreateCheck)
	r.Get("/status", h.handleListChecks)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (h *Handler) handleCreateCheck(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ClientName string `json:"clientName"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.ClientName) == "" {
		utils.RespondError(w, http.StatusBadRequest, "clientName is required")
		return
	}

	check := status.Check{
		ID:         uuid.NewString(),
		ClientName: payload.ClientName,
		Timestamp:  h.now(),
	}
	if err := h.checks.CreateStatusCheck(r.Context(), check); err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, check)
}

func (h *Handler) handleListChecks(w http.ResponseWriter, r *http.Request) {
	checks, err := h.checks.ListStatusChecks(r.Context(), MaxListedChecks)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	if checks == nil {
		checks = []status.Check{}
	}

	utils.RespondJSON(w, http.StatusOK, checks)
}
