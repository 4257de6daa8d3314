package port

import (
	"context"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

type InvoiceRepository interface {
	// CreateInvoice inserts a new invoice row
	CreateInvoice(ctx context.Context, invoice domain.Invoice) error

	// UpdateInvoice sets customer_id, amount and status of the invoice with the given id.
	// Updating a missing id is not an error.
	UpdateInvoice(ctx context.Context, id string, input domain.InvoiceInput) error

	// DeleteInvoice removes the invoice with the given id. Deleting a missing id is not an error.
	DeleteInvoice(ctx context.Context, id string) error

	// GetInvoice returns nil, nil when no invoice has the given id
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)

	// ListInvoices returns matching invoices ordered by date, newest first
	ListInvoices(ctx context.Context, query string, limit, offset int) ([]domain.Invoice, error)

	// CountInvoices counts invoices matching query
	CountInvoices(ctx context.Context, query string) (int, error)

	// Ping checks the store is reachable
	Ping(ctx context.Context) error
}
