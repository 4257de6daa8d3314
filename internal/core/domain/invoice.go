package domain

import "time"

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// DateLayout is the calendar date format stored in invoices.date.
const DateLayout = "2006-01-02"

// InvoicesPath is the dashboard route whose rendering is revalidated after
// every mutation and where callers land after a successful action.
const InvoicesPath = "/dashboard/invoices"

// ItemsPerPage is the page size of the invoice list.
const ItemsPerPage = 6

type Invoice struct {
	ID         string        `db:"id" json:"id"`
	CustomerID string        `db:"customer_id" json:"customer_id"`
	Amount     int64         `db:"amount" json:"amount"` // minor units
	Status     InvoiceStatus `db:"status" json:"status"`
	Date       string        `db:"date" json:"date"`
}

// InvoiceInput is a validated form submission. Amount is already in minor units.
type InvoiceInput struct {
	CustomerID string
	Amount     int64
	Status     InvoiceStatus
}

// InvoicePage is one page of a filtered invoice listing.
type InvoicePage struct {
	Invoices   []Invoice `json:"invoices"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
}

// Today returns the calendar date of t in UTC.
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
