package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timebill/internal/application/port"
	"timebill/internal/application/service"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

// InvoiceItemRequest is one invoice line. The unit price is display
// precision.
type InvoiceItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	ProjectID   string  `json:"project_id"`
	Type        string  `json:"type"`
}

// InvoiceRequest is the payload for creating or updating an invoice. Omitted
// due date and tax rate fall back to the configured billing defaults.
type InvoiceRequest struct {
	ClientID  string               `json:"client_id"`
	IssueDate string               `json:"issue_date"`
	DueDate   string               `json:"due_date"`
	Status    string               `json:"status"`
	Notes     string               `json:"notes"`
	TaxRate   *float64             `json:"tax_rate"`
	Items     []InvoiceItemRequest `json:"items"`
}

func (h *Handlers) bindInvoice(c *gin.Context) (service.InvoiceInput, bool) {
	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return service.InvoiceInput{}, false
	}

	in := service.InvoiceInput{
		ClientID: req.ClientID,
		Status:   req.Status,
		Notes:    req.Notes,
	}
	if in.Status == "" {
		in.Status = entity.InvoiceStatusDraft
	}

	if req.IssueDate != "" {
		issue, err := parseDate(req.IssueDate)
		if err != nil {
			h.badRequest(c, "invalid issue date")
			return service.InvoiceInput{}, false
		}
		in.IssueDate = issue
	} else {
		now := time.Now()
		in.IssueDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			h.badRequest(c, "invalid due date")
			return service.InvoiceInput{}, false
		}
		in.DueDate = due
	} else {
		in.DueDate = in.IssueDate.AddDate(0, 0, h.defaults.DueDays)
	}

	if req.TaxRate != nil {
		in.TaxRate = *req.TaxRate
	} else {
		in.TaxRate = h.defaults.TaxRate
	}

	for _, item := range req.Items {
		itemType := item.Type
		if itemType == "" {
			itemType = entity.ItemTypeTime
		}
		in.Items = append(in.Items, service.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			ProjectID:   item.ProjectID,
			Type:        itemType,
		})
	}

	return in, true
}

// InvoiceItemResponse decorates an item with display-precision amounts.
type InvoiceItemResponse struct {
	*entity.InvoiceItem
	UnitPrice float64 `json:"unit_price"`
	Amount    float64 `json:"amount"`
}

// InvoiceResponse decorates an invoice with display-precision totals.
type InvoiceResponse struct {
	*entity.Invoice
	Subtotal    float64               `json:"subtotal"`
	Tax         float64               `json:"tax"`
	Total       float64               `json:"total"`
	Paid        float64               `json:"paid"`
	Outstanding float64               `json:"outstanding"`
	ItemDetails []InvoiceItemResponse `json:"item_details,omitempty"`
}

func invoiceResponse(inv *entity.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		Invoice:     inv,
		Subtotal:    billing.FromCents(inv.SubtotalCents),
		Tax:         billing.FromCents(inv.TaxCents),
		Total:       billing.FromCents(inv.TotalCents),
		Paid:        billing.FromCents(inv.PaidCents()),
		Outstanding: billing.FromCents(inv.OutstandingCents()),
	}
	for _, item := range inv.Items {
		resp.ItemDetails = append(resp.ItemDetails, InvoiceItemResponse{
			InvoiceItem: item,
			UnitPrice:   billing.FromCents(item.UnitPriceCents),
			Amount:      billing.FromCents(item.AmountCents),
		})
	}
	return resp
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	in, ok := h.bindInvoice(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, invoiceResponse(invoice))
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, invoiceResponse(invoice))
}

// ListInvoicesRequest holds query parameters for GET /api/invoices
type ListInvoicesRequest struct {
	ClientID   string   `form:"client_id"`
	Status     []string `form:"status"`
	IssueStart string   `form:"issue_start"`
	IssueEnd   string   `form:"issue_end"`
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	filter := port.InvoiceFilter{
		ClientID: req.ClientID,
		Statuses: req.Status,
	}
	if req.IssueStart != "" {
		start, err := parseDate(req.IssueStart)
		if err != nil {
			h.badRequest(c, "invalid issue start date")
			return
		}
		filter.IssueStart = &start
	}
	if req.IssueEnd != "" {
		end, err := parseDate(req.IssueEnd)
		if err != nil {
			h.badRequest(c, "invalid issue end date")
			return
		}
		filter.IssueEnd = &end
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoiceResponse(inv))
	}
	h.respond(c, http.StatusOK, out)
}

// UpdateInvoice handles PUT /api/invoices/:id
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	in, ok := h.bindInvoice(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), c.Param("id"), currentUserID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, invoiceResponse(invoice))
}

// DeleteInvoice handles DELETE /api/invoices/:id
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	if err := h.invoiceService.Delete(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, nil)
}

// PaymentRequest is the payload for POST /api/invoices/:id/payments
type PaymentRequest struct {
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

// PaymentResponse decorates a payment with its display-precision amount.
type PaymentResponse struct {
	*entity.Payment
	Amount float64 `json:"amount"`
}

// AddPayment handles POST /api/invoices/:id/payments
func (h *Handlers) AddPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	in := service.PaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			h.badRequest(c, "invalid date")
			return
		}
		in.Date = date
	}

	payment, err := h.invoiceService.AddPayment(c.Request.Context(), c.Param("id"), currentUserID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, PaymentResponse{
		Payment: payment,
		Amount:  billing.FromCents(payment.AmountCents),
	})
}

// ExportInvoice handles GET /api/invoices/:id/export
func (h *Handlers) ExportInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("%s.xlsx", invoice.InvoiceNumber)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.exporter.Invoice(c.Writer, invoice); err != nil {
		h.respondError(c, err)
		return
	}
}
