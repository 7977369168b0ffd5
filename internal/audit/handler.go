package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/httpx"
)

// Lister reads back recent audit entries.
type Lister interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Handler exposes the audit trail over JSON.
type Handler struct {
	logger *slog.Logger
	lister Lister
}

// NewHandler builds the audit HTTP handler.
func NewHandler(logger *slog.Logger, lister Lister) *Handler {
	return &Handler{logger: logger, lister: lister}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/audit", h.recent)
}

type entryResponse struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityRef string    `json:"entity_ref"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.lister.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list audit entries", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "internal error", "something went wrong, please try again")
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.ID.String(),
			Actor:     e.Actor,
			Action:    e.Action,
			Entity:    e.Entity,
			EntityRef: e.EntityRef,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}
