package analytics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/cache"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/httpx"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/shared"
)

// Handler exposes reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   *cache.JSONCache
}

// NewHandler builds the analytics HTTP handler. cache may be nil.
func NewHandler(logger *slog.Logger, service *Service, jsonCache *cache.JSONCache) *Handler {
	return &Handler{logger: logger, service: service, cache: jsonCache}
}

// MountRoutes registers analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/analytics/summary", h.summary)
	r.Get("/analytics/aging", h.aging)
	r.Get("/analytics/dashboard", h.dashboard)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := periodBounds(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("analytics:summary:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached Summary
	if !from.IsZero() && h.cache.Get(r.Context(), key, &cached) {
		httpx.JSON(w, http.StatusOK, cached)
		return
	}

	summary, err := h.service.GetSummary(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !from.IsZero() {
		h.cache.Set(r.Context(), key, summary)
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.GetAging(r.Context(), time.Time{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, buckets)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	from, to, ok := periodBounds(w, r)
	if !ok {
		return
	}
	dashboard, err := h.service.GetDashboard(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("analytics request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "internal error", shared.UserSafeMessage(err))
}

func periodBounds(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid request", "from must be YYYY-MM-DD")
			return from, to, false
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid request", "to must be YYYY-MM-DD")
			return from, to, false
		}
	}
	return from, to, true
}
