package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	"github.com/rl1809/invoice-dashboard/internal/core/service"
	ierr "github.com/rl1809/invoice-dashboard/internal/errors"
	"github.com/rl1809/invoice-dashboard/internal/logger"
	"github.com/rl1809/invoice-dashboard/internal/port"
	"github.com/rl1809/invoice-dashboard/internal/search"
)

const maxFormMemory = 1 << 20

type HTTPHandler struct {
	invoices *service.InvoiceService
	cache    port.PageCache
	logger   *logger.Logger
}

type InvoiceResponse struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
	Date       string `json:"date"`
}

type InvoiceListResponse struct {
	Invoices   []InvoiceResponse `json:"invoices"`
	Query      string            `json:"query"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

func NewHTTPHandler(invoices *service.InvoiceService, cache port.PageCache, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{invoices: invoices, cache: cache, logger: log}
}

// Register mounts the dashboard routes on r.
func (h *HTTPHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	invoices := r.Group(domain.InvoicesPath)
	invoices.GET("", h.ListInvoices)
	invoices.POST("", h.CreateInvoice)
	invoices.GET("/:id", h.GetInvoice)
	invoices.POST("/:id/edit", h.EditInvoice)
	invoices.POST("/:id/delete", h.DeleteInvoice)
}

func (h *HTTPHandler) CreateInvoice(c *gin.Context) {
	state := h.invoices.CreateInvoice(c.Request.Context(), h.formData(c))
	writeAction(c, state)
}

func (h *HTTPHandler) EditInvoice(c *gin.Context) {
	state := h.invoices.EditInvoice(c.Request.Context(), c.Param("id"), h.formData(c))
	writeAction(c, state)
}

func (h *HTTPHandler) DeleteInvoice(c *gin.Context) {
	state := h.invoices.DeleteInvoice(c.Request.Context(), c.Param("id"))
	writeAction(c, state)
}

func (h *HTTPHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoices.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toInvoiceResponse(*invoice))
}

// ListInvoices serves the filtered list from the page cache. Mutations
// revalidate InvoicesPath, so every variant is re-rendered after a write.
func (h *HTTPHandler) ListInvoices(c *gin.Context) {
	query, page := search.ParseParams(c.Request.URL.Query())
	variant := url.Values{
		search.ParamQuery: {query},
		search.ParamPage:  {strconv.Itoa(page)},
	}.Encode()

	body, err := h.cache.Render(c.Request.Context(), domain.InvoicesPath, variant, func(ctx context.Context) ([]byte, error) {
		result, err := h.invoices.ListInvoices(ctx, query, page)
		if err != nil {
			return nil, err
		}
		return json.Marshal(InvoiceListResponse{
			Invoices:   lo.Map(result.Invoices, func(inv domain.Invoice, _ int) InvoiceResponse { return toInvoiceResponse(inv) }),
			Query:      query,
			Page:       result.Page,
			TotalPages: result.TotalPages,
		})
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// formData reads url-encoded or multipart fields. A malformed body yields an
// empty form, which then fails validation like any incomplete submission.
func (h *HTTPHandler) formData(c *gin.Context) domain.FormData {
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.logger.Warnw("failed to parse form", "path", c.FullPath(), "error", err)
	}
	return domain.FormDataFromValues(c.Request.PostForm)
}

func writeAction(c *gin.Context, state domain.ActionState) {
	if state.OK() {
		c.Redirect(http.StatusSeeOther, state.Redirect)
		return
	}
	if state.Err != nil {
		// picked up by RequestLogger; ErrorHandler skips written responses
		c.Error(state.Err)
	}
	c.JSON(ierr.HTTPStatusFromErr(state.Err), state)
}

func toInvoiceResponse(inv domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:         inv.ID,
		CustomerID: inv.CustomerID,
		Amount:     decimal.New(inv.Amount, -2).StringFixed(2),
		Status:     string(inv.Status),
		Date:       inv.Date,
	}
}
