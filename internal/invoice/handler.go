package invoice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/audit"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/httpx"
)

// DocumentRenderer renders an invoice into a PDF document.
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, inv *Invoice) ([]byte, error)
}

// IssueNotifier queues the customer's copy of a freshly issued invoice
// for outbound delivery.
type IssueNotifier interface {
	NotifyIssued(ctx context.Context, inv *Invoice) error
}

// Handler exposes invoice operations over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	auditor  audit.Recorder
	renderer DocumentRenderer
	notifier IssueNotifier
	validate *validator.Validate
}

// NewHandler builds the invoice HTTP handler. renderer and notifier may
// be nil when PDF rendering or outbound mail is not configured.
func NewHandler(logger *slog.Logger, service *Service, auditor audit.Recorder, renderer DocumentRenderer, notifier IssueNotifier) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		auditor:  auditor,
		renderer: renderer,
		notifier: notifier,
		validate: validator.New(),
	}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.createInvoice)
	r.Get("/invoices", h.listInvoices)
	r.Get("/invoices/{id}", h.getInvoice)
	r.Get("/invoices/number/{number}", h.getInvoiceByNumber)
	r.Post("/invoices/{id}/cancel", h.cancelInvoice)
	r.Get("/invoices/{id}/pdf", h.invoicePDF)
	r.Post("/recurring-profiles", h.createRecurringProfile)
}

type customerRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"required"`
	GSTIN   string `json:"gstin"`
}

type lineItemRequest struct {
	Description string `json:"description" validate:"required"`
	HSNCode     string `json:"hsn_code"`
	Quantity    int64  `json:"quantity" validate:"required"`
	UnitPrice   string `json:"unit_price" validate:"required"`
	GSTRate     int    `json:"gst_rate"`
}

type createInvoiceRequest struct {
	Customer  customerRequest   `json:"customer" validate:"required"`
	Items     []lineItemRequest `json:"items" validate:"required,min=1"`
	IssueDate string            `json:"issue_date"`
	DueDate   string            `json:"due_date"`
	Notes     string            `json:"notes"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	issueDate, ok := parseDate(w, req.IssueDate, "issue_date")
	if !ok {
		return
	}
	dueDate, ok := parseDate(w, req.DueDate, "due_date")
	if !ok {
		return
	}

	inv, err := h.service.Create(r.Context(), CreateInvoiceInput{
		Customer:  rawCustomer(req.Customer),
		Items:     rawItems(req.Items),
		IssueDate: issueDate,
		DueDate:   dueDate,
		Notes:     req.Notes,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.record(r.Context(), audit.ActionInvoiceCreated, inv.Number,
		fmt.Sprintf("grand total %s", inv.GrandTotal.StringFixed(2)))
	h.notifyIssued(r.Context(), inv)
	httpx.JSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

// notifyIssued queues the customer's invoice copy. Best effort, like
// auditing: an unreachable queue never fails the creation.
func (h *Handler) notifyIssued(ctx context.Context, inv *Invoice) {
	if h.notifier == nil || inv == nil {
		return
	}
	if err := h.notifier.NotifyIssued(ctx, inv); err != nil {
		h.logger.Warn("queue issued invoice mail", slog.String("number", inv.Number), slog.Any("error", err))
	}
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) getInvoiceByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "invoice number must not be empty")
		return
	}
	inv, err := h.service.GetByNumber(r.Context(), number)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	from, ok := parseDate(w, q.Get("from"), "from")
	if !ok {
		return
	}
	to, ok := parseDate(w, q.Get("to"), "to")
	if !ok {
		return
	}
	invoices, err := h.service.List(r.Context(), ListInvoicesRequest{
		Status:        InvoiceStatus(q.Get("status")),
		PaymentStatus: PaymentStatus(q.Get("payment_status")),
		Number:        q.Get("number"),
		CustomerName:  q.Get("customer"),
		IssuedFrom:    from,
		IssuedTo:      to,
		Limit:         limit,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, toInvoiceResponse(&invoices[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": out})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	// The body is optional; cancelling without a reason is allowed.
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	if err := h.service.Cancel(r.Context(), id, req.Reason); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.record(r.Context(), audit.ActionInvoiceCancelled, strconv.FormatInt(id, 10), req.Reason)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		httpx.Problem(w, http.StatusNotImplemented, "pdf rendering unavailable", "no renderer configured")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	pdf, err := h.renderer.RenderInvoice(r.Context(), inv)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.String("number", inv.Number), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "pdf rendering failed", "document service unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Number+".pdf"))
	_, _ = w.Write(pdf)
}

type recurringProfileRequest struct {
	Name      string            `json:"name" validate:"required"`
	Customer  customerRequest   `json:"customer" validate:"required"`
	Items     []lineItemRequest `json:"items" validate:"required,min=1"`
	Frequency string            `json:"frequency" validate:"required"`
	Notes     string            `json:"notes"`
}

func (h *Handler) createRecurringProfile(w http.ResponseWriter, r *http.Request) {
	var req recurringProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	freq, err := ParseFrequency(req.Frequency)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "frequency must be weekly, monthly, quarterly or yearly")
		return
	}

	profile, err := h.service.CreateRecurringProfile(r.Context(), RecurringProfile{
		Name:      req.Name,
		Customer:  rawCustomer(req.Customer),
		Items:     rawItems(req.Items),
		Notes:     req.Notes,
		Frequency: freq,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":          profile.ID,
		"name":        profile.Name,
		"frequency":   profile.Frequency,
		"next_run_at": profile.NextRunAt.Format(time.RFC3339),
		"active":      profile.Active,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.ValidationProblem(w, "invoice input failed validation", verr.Fields)
	case errors.Is(err, ErrNumberingConflict):
		httpx.Problem(w, http.StatusConflict, "numbering conflict", "invoice number assignment conflicted, please retry")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "not found", "invoice not found")
	case errors.Is(err, ErrNotCancellable):
		httpx.Problem(w, http.StatusUnprocessableEntity, "not cancellable", "only unpaid issued invoices can be cancelled")
	default:
		h.logger.Error("invoice request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "internal error", "something went wrong, please try again")
	}
}

func (h *Handler) record(ctx context.Context, action, ref, detail string) {
	if h.auditor == nil {
		return
	}
	err := h.auditor.Record(ctx, audit.Entry{
		Actor:     "api",
		Action:    action,
		Entity:    "invoice",
		EntityRef: ref,
		Detail:    detail,
	})
	if err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func rawCustomer(req customerRequest) RawCustomer {
	return RawCustomer{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		GSTIN:   req.GSTIN,
	}
}

func rawItems(reqs []lineItemRequest) []RawLineItem {
	items := make([]RawLineItem, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, RawLineItem{
			Description: it.Description,
			HSNCode:     it.HSNCode,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			GSTRate:     it.GSTRate,
		})
	}
	return items
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "invoice id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseDate(w http.ResponseWriter, raw, field string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", field+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

type lineItemResponse struct {
	Description  string `json:"description"`
	HSNCode      string `json:"hsn_code,omitempty"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	GSTRate      int    `json:"gst_rate"`
	TaxableValue string `json:"taxable_value"`
	CGST         string `json:"cgst"`
	SGST         string `json:"sgst"`
	IGST         string `json:"igst"`
	TaxAmount    string `json:"tax_amount"`
	LineTotal    string `json:"line_total"`
}

type invoiceResponse struct {
	ID            int64              `json:"id"`
	Number        string             `json:"number"`
	IssueDate     string             `json:"issue_date"`
	DueDate       string             `json:"due_date"`
	Customer      customerRequest    `json:"customer"`
	Items         []lineItemResponse `json:"items"`
	IntraState    bool               `json:"intra_state"`
	Subtotal      string             `json:"subtotal"`
	TotalCGST     string             `json:"total_cgst"`
	TotalSGST     string             `json:"total_sgst"`
	TotalIGST     string             `json:"total_igst"`
	TotalTax      string             `json:"total_tax"`
	GrandTotal    string             `json:"grand_total"`
	Status        InvoiceStatus      `json:"status"`
	PaymentStatus PaymentStatus      `json:"payment_status"`
	Notes         string             `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func toInvoiceResponse(inv *Invoice) invoiceResponse {
	items := make([]lineItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, lineItemResponse{
			Description:  it.Description,
			HSNCode:      it.HSNCode,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice.StringFixed(2),
			GSTRate:      int(it.Rate),
			TaxableValue: it.Tax.TaxableValue.StringFixed(2),
			CGST:         it.Tax.CGST.StringFixed(2),
			SGST:         it.Tax.SGST.StringFixed(2),
			IGST:         it.Tax.IGST.StringFixed(2),
			TaxAmount:    it.Tax.TaxAmount.StringFixed(2),
			LineTotal:    it.Tax.LineTotal.StringFixed(2),
		})
	}
	return invoiceResponse{
		ID:        inv.ID,
		Number:    inv.Number,
		IssueDate: inv.IssueDate.Format("2006-01-02"),
		DueDate:   inv.DueDate.Format("2006-01-02"),
		Customer: customerRequest{
			Name:    inv.Customer.Name,
			Address: inv.Customer.Address,
			Phone:   inv.Customer.Phone,
			Email:   inv.Customer.Email,
			GSTIN:   inv.Customer.GSTIN,
		},
		Items:         items,
		IntraState:    inv.IntraState,
		Subtotal:      inv.Subtotal.StringFixed(2),
		TotalCGST:     inv.TotalCGST.StringFixed(2),
		TotalSGST:     inv.TotalSGST.StringFixed(2),
		TotalIGST:     inv.TotalIGST.StringFixed(2),
		TotalTax:      inv.TotalTax.StringFixed(2),
		GrandTotal:    inv.GrandTotal.StringFixed(2),
		Status:        inv.Status,
		PaymentStatus: inv.PaymentStatus,
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt,
	}
}
