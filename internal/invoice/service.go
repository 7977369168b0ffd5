package invoice

import (
	"context"
	"fmt"
	"time"
)

// RepositoryPort defines data access for invoices. CreateInvoice must
// reserve the next series number and insert the invoice in one atomic
// operation: a failed creation never consumes a number, and two
// concurrent creations never receive the same one.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, input CreateRecord) (*Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	CancelInvoice(ctx context.Context, id int64, reason string) error
	ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error)

	CreateRecurringProfile(ctx context.Context, profile RecurringProfile) (*RecurringProfile, error)
	ListDueRecurring(ctx context.Context, asOf time.Time) ([]RecurringProfile, error)
	MarkRecurringRun(ctx context.Context, profileID int64, nextRunAt time.Time) error
}

// SellerProfile identifies the issuing business. The GSTIN state code
// decides intra- versus inter-state treatment for every invoice.
type SellerProfile struct {
	Name    string
	Address string
	GSTIN   string
	Email   string
}

// SeriesConfig controls invoice number formatting. The series restarts
// each Indian fiscal year: <prefix>-<fiscal year>-<zero-padded seq>.
type SeriesConfig struct {
	Prefix string
	Pad    int
}

// Series returns the numbering series a given issue date draws from.
func (c SeriesConfig) Series(issueDate time.Time) string {
	return fmt.Sprintf("%s-%s", c.Prefix, FiscalYear(issueDate))
}

// CreateInvoiceInput is the raw request to create an invoice.
type CreateInvoiceInput struct {
	Customer  RawCustomer
	Items     []RawLineItem
	IssueDate time.Time
	DueDate   time.Time
	Notes     string
}

// CreateRecord is the fully computed invoice handed to the repository.
type CreateRecord struct {
	Series     string
	Pad        int
	IssueDate  time.Time
	DueDate    time.Time
	Customer   Customer
	Items      []LineItem
	IntraState bool
	Totals     Totals
	Notes      string
}

// ListInvoicesRequest filters invoice listings. Number and CustomerName
// are case-insensitive substring searches; the date bounds are
// inclusive and may each be zero.
type ListInvoicesRequest struct {
	Status        InvoiceStatus
	PaymentStatus PaymentStatus
	Number        string
	CustomerName  string
	IssuedFrom    time.Time
	IssuedTo      time.Time
	Limit         int
}

// Service orchestrates invoice creation: validation, tax computation,
// number assignment and persistence. It performs no retries and never
// logs; every failure surfaces as a typed error for the caller.
type Service struct {
	validator *Validator
	repo      RepositoryPort
	seller    SellerProfile
	series    SeriesConfig
	dueDays   int
	now       func() time.Time
}

// ServiceConfig collects orchestrator settings.
type ServiceConfig struct {
	Seller  SellerProfile
	Series  SeriesConfig
	DueDays int
}

// NewService builds the invoice orchestrator.
func NewService(validator *Validator, repo RepositoryPort, cfg ServiceConfig) *Service {
	if cfg.Series.Prefix == "" {
		cfg.Series.Prefix = "INV"
	}
	if cfg.Series.Pad <= 0 {
		cfg.Series.Pad = 5
	}
	if cfg.DueDays <= 0 {
		cfg.DueDays = 30
	}
	return &Service{
		validator: validator,
		repo:      repo,
		seller:    cfg.Seller,
		series:    cfg.Series,
		dueDays:   cfg.DueDays,
		now:       time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Create validates the input, computes the GST breakdown and persists
// the invoice under a freshly reserved number. A *ValidationError is
// returned unchanged and consumes no number. ErrNumberingConflict means
// the reservation lost a race; the caller retries, never reusing the
// failed number.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}

	customer, items, err := s.validator.Validate(input.Customer, input.Items, input.IssueDate)
	if err != nil {
		return nil, err
	}

	intra := IsIntraState(s.seller.GSTIN, customer.GSTIN)
	items, totals, err := ComputeAll(items, intra)
	if err != nil {
		return nil, err
	}

	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, s.dueDays)
	}

	return s.repo.CreateInvoice(ctx, CreateRecord{
		Series:     s.series.Series(issueDate),
		Pad:        s.series.Pad,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		Customer:   customer,
		Items:      items,
		IntraState: intra,
		Totals:     totals,
		Notes:      input.Notes,
	})
}

// Get loads one invoice and verifies its stored totals against a fresh
// derivation from the line breakdowns.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.CheckTotals(); err != nil {
		return nil, err
	}
	return inv, nil
}

// GetByNumber loads one invoice by its document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := inv.CheckTotals(); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	return s.repo.ListInvoices(ctx, req)
}

// Cancel marks an unpaid issued invoice as cancelled. The number and
// the row are retained forever; numbers are never reassigned.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) error {
	return s.repo.CancelInvoice(ctx, id, reason)
}

// ListOverdue returns issued invoices past their due date that still
// carry an outstanding balance.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	return s.repo.ListOverdue(ctx, asOf)
}

// CreateRecurringProfile stores an invoice template after running its
// customer and items through the same validation as a real invoice.
func (s *Service) CreateRecurringProfile(ctx context.Context, profile RecurringProfile) (*RecurringProfile, error) {
	if _, _, err := s.validator.Validate(profile.Customer, profile.Items, time.Time{}); err != nil {
		return nil, err
	}
	if _, err := ParseFrequency(string(profile.Frequency)); err != nil {
		return nil, err
	}
	if profile.NextRunAt.IsZero() {
		profile.NextRunAt = profile.Frequency.Next(s.now())
	}
	profile.Active = true
	return s.repo.CreateRecurringProfile(ctx, profile)
}

// GenerateDueRecurring materializes every active profile whose next run
// is due, advancing its schedule. One failing profile does not stop the
// rest; the first error is reported after the sweep.
func (s *Service) GenerateDueRecurring(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	profiles, err := s.repo.ListDueRecurring(ctx, asOf)
	if err != nil {
		return nil, err
	}

	var created []Invoice
	var firstErr error
	for _, p := range profiles {
		inv, err := s.Create(ctx, CreateInvoiceInput{
			Customer: p.Customer,
			Items:    p.Items,
			Notes:    p.Notes,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("invoice: recurring profile %d: %w", p.ID, err)
			}
			continue
		}
		created = append(created, *inv)
		if err := s.repo.MarkRecurringRun(ctx, p.ID, p.Frequency.Next(asOf)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return created, firstErr
}

// Seller exposes the issuing business profile to adapters (PDF, mail).
func (s *Service) Seller() SellerProfile { return s.seller }
