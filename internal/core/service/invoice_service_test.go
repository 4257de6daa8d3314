package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	ierr "github.com/rl1809/invoice-dashboard/internal/errors"
	"github.com/rl1809/invoice-dashboard/internal/logger"
	"github.com/rl1809/invoice-dashboard/internal/port"
)

// Mock InvoiceRepository
type mockInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[string]domain.Invoice
	calls    []string
	err      error
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: make(map[string]domain.Invoice)}
}

func (m *mockInvoiceRepo) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *mockInvoiceRepo) CreateInvoice(ctx context.Context, invoice domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("insert")
	if m.err != nil {
		return m.err
	}
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *mockInvoiceRepo) UpdateInvoice(ctx context.Context, id string, input domain.InvoiceInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("update")
	if m.err != nil {
		return m.err
	}
	inv, ok := m.invoices[id]
	if !ok {
		return nil
	}
	inv.CustomerID = input.CustomerID
	inv.Amount = input.Amount
	inv.Status = input.Status
	m.invoices[id] = inv
	return nil
}

func (m *mockInvoiceRepo) DeleteInvoice(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete")
	if m.err != nil {
		return m.err
	}
	delete(m.invoices, id)
	return nil
}

func (m *mockInvoiceRepo) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	inv, ok := m.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (m *mockInvoiceRepo) ListInvoices(ctx context.Context, query string, limit, offset int) ([]domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("list")
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Invoice
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (m *mockInvoiceRepo) CountInvoices(ctx context.Context, query string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.invoices), nil
}

func (m *mockInvoiceRepo) Ping(ctx context.Context) error {
	return m.err
}

// Mock PageCache
type mockPageCache struct {
	mu          sync.Mutex
	revalidated []string
	err         error
}

func (m *mockPageCache) Render(ctx context.Context, path, variant string, render port.RenderFunc) ([]byte, error) {
	return render(ctx)
}

func (m *mockPageCache) Revalidate(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revalidated = append(m.revalidated, path)
	return m.err
}

var fixedNow = time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC)

func newTestService(repo *mockInvoiceRepo, cache *mockPageCache) *InvoiceService {
	return NewInvoiceService(repo, cache, logger.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "inv-new" }),
	)
}

func validForm() domain.FormData {
	return domain.FormData{"customerId": "c1", "amount": "10.5", "status": "pending"}
}

func TestCreateInvoice_Success(t *testing.T) {
	repo := newMockInvoiceRepo()
	cache := &mockPageCache{}
	svc := newTestService(repo, cache)

	state := svc.CreateInvoice(context.Background(), validForm())

	require.True(t, state.OK())
	assert.Equal(t, "/dashboard/invoices", state.Redirect)
	assert.Empty(t, state.Message)
	assert.Nil(t, state.Errors)

	assert.Equal(t, domain.Invoice{
		ID:         "inv-new",
		CustomerID: "c1",
		Amount:     1050,
		Status:     domain.InvoiceStatusPending,
		Date:       "2026-10-16",
	}, repo.invoices["inv-new"])
	assert.Equal(t, []string{"/dashboard/invoices"}, cache.revalidated)
}

func TestCreateInvoice_DateIsUTCCalendarDay(t *testing.T) {
	repo := newMockInvoiceRepo()
	local := time.FixedZone("UTC+5", 5*3600)
	svc := NewInvoiceService(repo, &mockPageCache{}, logger.NewNop(),
		WithClock(func() time.Time { return time.Date(2026, 10, 17, 2, 0, 0, 0, local) }),
		WithIDGenerator(func() string { return "inv-tz" }),
	)

	svc.CreateInvoice(context.Background(), validForm())

	assert.Equal(t, "2026-10-16", repo.invoices["inv-tz"].Date)
}

func TestCreateInvoice_ValidationFailure(t *testing.T) {
	tests := []struct {
		name  string
		form  domain.FormData
		field string
	}{
		{"missing customer", domain.FormData{"amount": "5", "status": "paid"}, "customerId"},
		{"zero amount", domain.FormData{"customerId": "c1", "amount": "0", "status": "paid"}, "amount"},
		{"negative amount", domain.FormData{"customerId": "c1", "amount": "-1", "status": "paid"}, "amount"},
		{"bad status", domain.FormData{"customerId": "c1", "amount": "5", "status": "void"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockInvoiceRepo()
			cache := &mockPageCache{}
			svc := newTestService(repo, cache)

			state := svc.CreateInvoice(context.Background(), tt.form)

			assert.False(t, state.OK())
			assert.Empty(t, state.Redirect)
			assert.NotEmpty(t, state.Errors[tt.field])
			assert.Equal(t, MsgCreateMissingFields, state.Message)
			assert.True(t, ierr.IsValidation(state.Err))
			assert.Empty(t, repo.calls, "no persistence call expected")
			assert.Empty(t, cache.revalidated)
		})
	}
}

func TestCreateInvoice_DatabaseFailure(t *testing.T) {
	repo := newMockInvoiceRepo()
	repo.err = errors.New("connection refused")
	cache := &mockPageCache{}
	svc := newTestService(repo, cache)

	state := svc.CreateInvoice(context.Background(), validForm())

	assert.False(t, state.OK())
	assert.Empty(t, state.Redirect)
	assert.Nil(t, state.Errors)
	assert.Equal(t, MsgCreateDatabase, state.Message)
	assert.True(t, ierr.IsDatabase(state.Err))
	assert.Empty(t, cache.revalidated)
}

func TestCreateInvoice_RevalidateFailureStillRedirects(t *testing.T) {
	repo := newMockInvoiceRepo()
	cache := &mockPageCache{err: errors.New("redis down")}
	svc := newTestService(repo, cache)

	state := svc.CreateInvoice(context.Background(), validForm())

	assert.True(t, state.OK())
	assert.Len(t, repo.invoices, 1)
}

func TestEditInvoice_Success(t *testing.T) {
	repo := newMockInvoiceRepo()
	repo.invoices["inv-1"] = domain.Invoice{
		ID: "inv-1", CustomerID: "c1", Amount: 100, Status: domain.InvoiceStatusPending, Date: "2024-01-02",
	}
	cache := &mockPageCache{}
	svc := newTestService(repo, cache)

	state := svc.EditInvoice(context.Background(), "inv-1",
		domain.FormData{"customerId": "c2", "amount": "7.25", "status": "paid"})

	require.True(t, state.OK())
	assert.Equal(t, domain.Invoice{
		ID: "inv-1", CustomerID: "c2", Amount: 725, Status: domain.InvoiceStatusPaid, Date: "2024-01-02",
	}, repo.invoices["inv-1"])
	assert.Equal(t, []string{"/dashboard/invoices"}, cache.revalidated)
}

func TestEditInvoice_MissingCustomer(t *testing.T) {
	repo := newMockInvoiceRepo()
	cache := &mockPageCache{}
	svc := newTestService(repo, cache)

	state := svc.EditInvoice(context.Background(), "inv-1",
		domain.FormData{"customerId": "", "amount": "5", "status": "paid"})

	assert.Equal(t, domain.FieldErrors{"customerId": {"Please select a customer."}}, state.Errors)
	assert.Equal(t, MsgEditMissingFields, state.Message)
	assert.Empty(t, state.Redirect)
	assert.NotContains(t, repo.calls, "update")
}

func TestEditInvoice_DatabaseFailure(t *testing.T) {
	repo := newMockInvoiceRepo()
	repo.err = errors.New("deadlock")
	svc := newTestService(repo, &mockPageCache{})

	state := svc.EditInvoice(context.Background(), "inv-1", validForm())

	assert.Equal(t, MsgEditDatabase, state.Message)
	assert.True(t, ierr.IsDatabase(state.Err))
	assert.Empty(t, state.Redirect)
}

func TestDeleteInvoice_Success(t *testing.T) {
	repo := newMockInvoiceRepo()
	repo.invoices["inv-1"] = domain.Invoice{ID: "inv-1"}
	cache := &mockPageCache{}
	svc := newTestService(repo, cache)

	state := svc.DeleteInvoice(context.Background(), "inv-1")

	assert.True(t, state.OK())
	assert.Empty(t, repo.invoices)
	assert.Equal(t, []string{"/dashboard/invoices"}, cache.revalidated)
}

func TestDeleteInvoice_MissingIDIsNominal(t *testing.T) {
	repo := newMockInvoiceRepo()
	cache := &mockPageCache{}
	svc := newTestService(repo, cache)

	state := svc.DeleteInvoice(context.Background(), "does-not-exist")

	assert.True(t, state.OK())
	assert.Nil(t, state.Errors)
	assert.Equal(t, []string{"delete"}, repo.calls)
	assert.Equal(t, []string{"/dashboard/invoices"}, cache.revalidated)
}

func TestDeleteInvoice_DatabaseFailure(t *testing.T) {
	repo := newMockInvoiceRepo()
	repo.err = errors.New("timeout")
	cache := &mockPageCache{}
	svc := newTestService(repo, cache)

	state := svc.DeleteInvoice(context.Background(), "inv-1")

	assert.Equal(t, MsgDeleteDatabase, state.Message)
	assert.Empty(t, state.Redirect)
	assert.Empty(t, cache.revalidated)
}

func TestGetInvoice(t *testing.T) {
	repo := newMockInvoiceRepo()
	repo.invoices["inv-1"] = domain.Invoice{ID: "inv-1", CustomerID: "c1"}
	svc := newTestService(repo, &mockPageCache{})

	inv, err := svc.GetInvoice(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "c1", inv.CustomerID)

	_, err = svc.GetInvoice(context.Background(), "missing")
	assert.True(t, ierr.IsNotFound(err))
}

func TestListInvoices_Pagination(t *testing.T) {
	repo := newMockInvoiceRepo()
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		repo.invoices[id] = domain.Invoice{ID: id}
	}
	svc := newTestService(repo, &mockPageCache{})

	first, err := svc.ListInvoices(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 2, first.TotalPages)
	assert.Len(t, first.Invoices, 6)

	second, err := svc.ListInvoices(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Len(t, second.Invoices, 1)
}

func TestListInvoices_DatabaseFailure(t *testing.T) {
	repo := newMockInvoiceRepo()
	repo.err = errors.New("gone")
	svc := newTestService(repo, &mockPageCache{})

	_, err := svc.ListInvoices(context.Background(), "", 1)
	assert.True(t, ierr.IsDatabase(err))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0))
	assert.Equal(t, 1, TotalPages(1))
	assert.Equal(t, 1, TotalPages(6))
	assert.Equal(t, 2, TotalPages(7))
}
