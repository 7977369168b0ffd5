package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/audit"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/httpx"
)

// Handler exposes ledger operations over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	auditor  audit.Recorder
	validate *validator.Validate
}

// NewHandler builds the payment HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, auditor audit.Recorder) *Handler {
	return &Handler{logger: logger, service: service, auditor: auditor, validate: validator.New()}
}

// MountRoutes registers payment routes under the invoice resource.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices/{id}/payments", h.recordPayment)
	r.Get("/invoices/{id}/payments", h.listPayments)
	r.Get("/invoices/{id}/balance", h.outstandingBalance)
}

type recordPaymentRequest struct {
	Amount        string `json:"amount" validate:"required"`
	Method        string `json:"method" validate:"required"`
	TransactionID string `json:"transaction_id"`
	Note          string `json:"note"`
}

type eventResponse struct {
	ID            int64     `json:"id"`
	Amount        string    `json:"amount"`
	Method        Method    `json:"method"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Note          string    `json:"note,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "amount must be a number")
		return
	}

	inv, event, err := h.service.RecordPayment(r.Context(), RecordPaymentInput{
		InvoiceID:     id,
		Amount:        amount,
		Method:        req.Method,
		TransactionID: req.TransactionID,
		Note:          req.Note,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.record(r.Context(), inv.Number, fmt.Sprintf("%s via %s", event.Amount.StringFixed(2), event.Method))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"invoice_number": inv.Number,
		"payment_status": inv.PaymentStatus,
		"event": eventResponse{
			ID:            event.ID,
			Amount:        event.Amount.StringFixed(2),
			Method:        event.Method,
			TransactionID: event.TransactionID,
			Note:          event.Note,
			RecordedAt:    event.RecordedAt,
		},
	})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	events, err := h.service.History(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:            e.ID,
			Amount:        e.Amount.StringFixed(2),
			Method:        e.Method,
			TransactionID: e.TransactionID,
			Note:          e.Note,
			RecordedAt:    e.RecordedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": out})
}

func (h *Handler) outstandingBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	balance, err := h.service.OutstandingBalance(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"outstanding_balance": balance.StringFixed(2)})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "not found", "invoice not found")
	case errors.Is(err, ErrInvalidAmount):
		httpx.Problem(w, http.StatusUnprocessableEntity, "invalid amount", "payment amount must be positive")
	case errors.Is(err, ErrInvalidMethod):
		httpx.Problem(w, http.StatusUnprocessableEntity, "invalid method", "unknown payment method")
	case errors.Is(err, ErrOverpayment):
		httpx.Problem(w, http.StatusUnprocessableEntity, "overpayment", "payment exceeds the outstanding balance")
	case errors.Is(err, ErrInvoiceCancelled):
		httpx.Problem(w, http.StatusUnprocessableEntity, "invoice cancelled", "cancelled invoices accept no payments")
	default:
		h.logger.Error("payment request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "internal error", "something went wrong, please try again")
	}
}

func (h *Handler) record(ctx context.Context, ref, detail string) {
	if h.auditor == nil {
		return
	}
	err := h.auditor.Record(ctx, audit.Entry{
		Actor:     "api",
		Action:    audit.ActionPaymentRecorded,
		Entity:    "invoice",
		EntityRef: ref,
		Detail:    detail,
	})
	if err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "invoice id must be a positive integer")
		return 0, false
	}
	return id, true
}
