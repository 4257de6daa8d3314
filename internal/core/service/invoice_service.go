package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	"github.com/rl1809/invoice-dashboard/internal/core/validation"
	ierr "github.com/rl1809/invoice-dashboard/internal/errors"
	"github.com/rl1809/invoice-dashboard/internal/logger"
	"github.com/rl1809/invoice-dashboard/internal/port"
)

const (
	MsgCreateMissingFields = "Missing Fields. Failed to Create Invoice."
	MsgCreateDatabase      = "Database Error: Failed to Create Invoice."
	MsgEditMissingFields   = "Missing Fields. Failed to Edit Invoice."
	MsgEditDatabase        = "Database Error: Failed to Edit Invoice."
	MsgDeleteDatabase      = "Database Error: Failed to Delete Invoice."
)

type InvoiceService struct {
	repo   port.InvoiceRepository
	cache  port.PageCache
	logger *logger.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*InvoiceService)

// WithClock overrides the time source used to date new invoices.
func WithClock(now func() time.Time) Option {
	return func(s *InvoiceService) { s.now = now }
}

// WithIDGenerator overrides invoice id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *InvoiceService) { s.newID = newID }
}

func NewInvoiceService(repo port.InvoiceRepository, cache port.PageCache, log *logger.Logger, opts ...Option) *InvoiceService {
	s := &InvoiceService{
		repo:   repo,
		cache:  cache,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvoice validates the form, inserts a pending or paid invoice dated
// today and redirects to the invoice list.
func (s *InvoiceService) CreateInvoice(ctx context.Context, form domain.FormData) domain.ActionState {
	input, fieldErrs := validation.ParseInvoiceForm(form)
	if len(fieldErrs) > 0 {
		return validationFailed(fieldErrs, MsgCreateMissingFields)
	}

	invoice := domain.Invoice{
		ID:         s.newID(),
		CustomerID: input.CustomerID,
		Amount:     input.Amount,
		Status:     input.Status,
		Date:       domain.Today(s.now()),
	}

	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		s.logger.Errorw("failed to create invoice", "customer_id", invoice.CustomerID, "error", err)
		return persistFailed(err, MsgCreateDatabase)
	}
	s.logger.Infow("invoice created", "invoice_id", invoice.ID, "amount", invoice.Amount)

	return s.finish(ctx)
}

// EditInvoice validates the form and updates customer, amount and status of
// invoice id. The invoice date is left untouched.
func (s *InvoiceService) EditInvoice(ctx context.Context, id string, form domain.FormData) domain.ActionState {
	input, fieldErrs := validation.ParseInvoiceForm(form)
	if len(fieldErrs) > 0 {
		return validationFailed(fieldErrs, MsgEditMissingFields)
	}

	if err := s.repo.UpdateInvoice(ctx, id, input); err != nil {
		s.logger.Errorw("failed to edit invoice", "invoice_id", id, "error", err)
		return persistFailed(err, MsgEditDatabase)
	}
	s.logger.Infow("invoice edited", "invoice_id", id)

	return s.finish(ctx)
}

// DeleteInvoice removes invoice id. A missing id still redirects.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id string) domain.ActionState {
	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		s.logger.Errorw("failed to delete invoice", "invoice_id", id, "error", err)
		return persistFailed(err, MsgDeleteDatabase)
	}
	s.logger.Infow("invoice deleted", "invoice_id", id)

	return s.finish(ctx)
}

// finish revalidates the invoice list and redirects to it. The write has
// already committed, so a cache failure is logged and the stale entry is
// left to expire.
func (s *InvoiceService) finish(ctx context.Context) domain.ActionState {
	if err := s.cache.Revalidate(ctx, domain.InvoicesPath); err != nil {
		s.logger.Warnw("failed to revalidate path", "path", domain.InvoicesPath, "error", err)
	}
	return domain.ActionState{Redirect: domain.InvoicesPath}
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Database Error: Failed to Fetch Invoice.").
			Mark(ierr.ErrDatabase)
	}
	if invoice == nil {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice %s not found.", id).
			Mark(ierr.ErrNotFound)
	}
	return invoice, nil
}

// ListInvoices returns one page of invoices matching query. Pages start at 1.
func (s *InvoiceService) ListInvoices(ctx context.Context, query string, page int) (*domain.InvoicePage, error) {
	page = lo.Max([]int{page, 1})

	total, err := s.repo.CountInvoices(ctx, query)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Database Error: Failed to Fetch Invoices.").
			Mark(ierr.ErrDatabase)
	}

	invoices, err := s.repo.ListInvoices(ctx, query, domain.ItemsPerPage, (page-1)*domain.ItemsPerPage)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Database Error: Failed to Fetch Invoices.").
			Mark(ierr.ErrDatabase)
	}

	return &domain.InvoicePage{
		Invoices:   invoices,
		Page:       page,
		TotalPages: TotalPages(total),
	}, nil
}

// TotalPages returns the number of list pages needed for total invoices.
func TotalPages(total int) int {
	return (total + domain.ItemsPerPage - 1) / domain.ItemsPerPage
}

func validationFailed(fieldErrs domain.FieldErrors, message string) domain.ActionState {
	details := lo.MapValues(fieldErrs, func(msgs []string, _ string) any { return msgs })
	return domain.ActionState{
		Errors:  fieldErrs,
		Message: message,
		Err: ierr.NewError("invalid invoice form").
			WithHint(message).
			WithReportableDetails(details).
			Mark(ierr.ErrValidation),
	}
}

func persistFailed(err error, message string) domain.ActionState {
	return domain.ActionState{
		Message: message,
		Err:     ierr.WithError(err).WithHint(message).Mark(ierr.ErrDatabase),
	}
}
