package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

// numberAttempts bounds the retry on invoice-number collisions. The unique
// index on invoice_number is the real guarantee; the retry just re-counts.
const numberAttempts = 3

// InvoiceItemInput is one line of an invoice payload. UnitPrice is display
// precision and converted to cents on entry.
type InvoiceItemInput struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	ProjectID   string
	Type        string
}

// InvoiceInput is the payload for creating or updating an invoice.
type InvoiceInput struct {
	ClientID  string
	IssueDate time.Time
	DueDate   time.Time
	Status    string
	Notes     string
	TaxRate   float64
	Items     []InvoiceItemInput
}

// PaymentInput records money received against an invoice.
type PaymentInput struct {
	Amount    float64
	Date      time.Time
	Method    string
	Reference string
	Notes     string
}

// InvoiceService assembles invoices: sequential numbering, subtotal/tax/total
// arithmetic in cents, and atomic create/update/delete of the item set.
type InvoiceService interface {
	Create(ctx context.Context, userID string, in InvoiceInput) (*entity.Invoice, error)
	Get(ctx context.Context, invoiceID, userID string) (*entity.Invoice, error)
	List(ctx context.Context, userID string, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	// Update recomputes totals and replaces the full item set inside one
	// transaction; readers never observe a partial item set.
	Update(ctx context.Context, invoiceID, userID string, in InvoiceInput) (*entity.Invoice, error)
	// Delete cascades item deletion. invoice_id back-references on time
	// entries and expenses are intentionally left in place.
	Delete(ctx context.Context, invoiceID, userID string) error
	AddPayment(ctx context.Context, invoiceID, userID string, in PaymentInput) (*entity.Payment, error)
}

type invoiceServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	paymentRepo port.PaymentRepository
	clientRepo  port.ClientRepository
	txManager   port.TransactionManager
	clock       port.Clock
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	paymentRepo port.PaymentRepository,
	clientRepo port.ClientRepository,
	txManager port.TransactionManager,
	clock port.Clock,
	logger *zap.Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		clientRepo:  clientRepo,
		txManager:   txManager,
		clock:       clock,
		logger:      logger,
	}
}

func validateInvoiceInput(in InvoiceInput) error {
	var v billing.Validator
	if in.ClientID == "" {
		v.Fail("client_id", "client is required")
	}
	if in.IssueDate.IsZero() {
		v.Fail("issue_date", "issue date is required")
	}
	if in.DueDate.IsZero() {
		v.Fail("due_date", "due date is required")
	} else if !in.IssueDate.IsZero() && in.DueDate.Before(in.IssueDate) {
		v.Fail("due_date", "due date must not be before issue date")
	}
	if !entity.ValidInvoiceStatus(in.Status) {
		v.Fail("status", "unknown invoice status")
	}
	if in.TaxRate < 0 {
		v.Fail("tax_rate", "tax rate must be non-negative")
	}
	if len(in.Items) == 0 {
		v.Fail("items", "at least one item is required")
	}
	for i, item := range in.Items {
		if item.Description == "" {
			v.Fail(fmt.Sprintf("items[%d].description", i), "description is required")
		}
		if item.Quantity <= 0 {
			v.Fail(fmt.Sprintf("items[%d].quantity", i), "quantity must be positive")
		}
		if item.UnitPrice < 0 {
			v.Fail(fmt.Sprintf("items[%d].unit_price", i), "unit price must be non-negative")
		}
		if !entity.ValidItemType(item.Type) {
			v.Fail(fmt.Sprintf("items[%d].type", i), "unknown item type")
		}
	}
	return v.Err()
}

// buildItems converts the inputs to entity items and returns them with the
// subtotal. All arithmetic is in cents.
func buildItems(invoiceID string, inputs []InvoiceItemInput) ([]*entity.InvoiceItem, int64) {
	items := make([]*entity.InvoiceItem, 0, len(inputs))
	var subtotal int64
	for _, in := range inputs {
		unitPrice := billing.ToCents(in.UnitPrice)
		amount := billing.ItemAmountCents(in.Quantity, unitPrice)
		subtotal += amount

		item := &entity.InvoiceItem{
			ID:             uuid.NewString(),
			InvoiceID:      invoiceID,
			Description:    in.Description,
			Quantity:       in.Quantity,
			UnitPriceCents: unitPrice,
			AmountCents:    amount,
			ItemType:       in.Type,
		}
		if in.ProjectID != "" {
			projectID := in.ProjectID
			item.ProjectID = &projectID
		}
		items = append(items, item)
	}
	return items, subtotal
}

// numberPrefix returns the day part of an invoice number, INV-YYYYMMDD.
func numberPrefix(date time.Time) string {
	return "INV-" + date.Format("20060102")
}

// formatNumber renders a full invoice number, e.g. INV-20250310-001.
func formatNumber(date time.Time, seq int) string {
	return fmt.Sprintf("%s-%03d", numberPrefix(date), seq)
}

func (s *invoiceServiceImpl) Create(ctx context.Context, userID string, in InvoiceInput) (*entity.Invoice, error) {
	if err := validateInvoiceInput(in); err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil || client.UserID != userID {
		return nil, billing.ErrNotFound
	}

	now := s.clock.Now()
	invoice := &entity.Invoice{
		ID:        uuid.NewString(),
		UserID:    userID,
		ClientID:  in.ClientID,
		IssueDate: in.IssueDate,
		DueDate:   in.DueDate,
		Status:    in.Status,
		TaxRate:   in.TaxRate,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	items, subtotal := buildItems(invoice.ID, in.Items)
	invoice.SubtotalCents = subtotal
	invoice.TaxCents = billing.TaxCents(subtotal, in.TaxRate)
	invoice.TotalCents = invoice.SubtotalCents + invoice.TaxCents
	invoice.Items = items

	// Allocate the number and insert in one transaction. A concurrent
	// creator can win the same sequence; the unique index rejects the
	// duplicate and the next attempt re-counts.
	for attempt := 1; ; attempt++ {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			count, err := s.invoiceRepo.CountByNumberPrefix(txCtx, numberPrefix(now))
			if err != nil {
				return fmt.Errorf("count invoices: %w", err)
			}
			invoice.InvoiceNumber = formatNumber(now, count+1)

			if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
				return err
			}
			for _, item := range items {
				if err := s.invoiceRepo.CreateItem(txCtx, item); err != nil {
					return fmt.Errorf("create item: %w", err)
				}
			}
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, billing.ErrNumberCollision) || attempt >= numberAttempts {
			return nil, err
		}
		s.logger.Warn("Invoice number collision, retrying",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Int("attempt", attempt))
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("total_cents", invoice.TotalCents))

	return invoice, nil
}

func (s *invoiceServiceImpl) Get(ctx context.Context, invoiceID, userID string) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if invoice == nil || invoice.UserID != userID {
		return nil, billing.ErrNotFound
	}
	return invoice, nil
}

func (s *invoiceServiceImpl) List(ctx context.Context, userID string, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	filter.UserID = userID
	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (s *invoiceServiceImpl) Update(ctx context.Context, invoiceID, userID string, in InvoiceInput) (*entity.Invoice, error) {
	existing, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return nil, billing.ErrNotFound
	}

	if err := validateInvoiceInput(in); err != nil {
		return nil, err
	}

	items, subtotal := buildItems(invoiceID, in.Items)

	existing.ClientID = in.ClientID
	existing.IssueDate = in.IssueDate
	existing.DueDate = in.DueDate
	existing.Status = in.Status
	existing.Notes = in.Notes
	existing.TaxRate = in.TaxRate
	existing.SubtotalCents = subtotal
	existing.TaxCents = billing.TaxCents(subtotal, in.TaxRate)
	existing.TotalCents = existing.SubtotalCents + existing.TaxCents
	existing.UpdatedAt = s.clock.Now()
	existing.Items = items

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.DeleteItems(txCtx, invoiceID); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := s.invoiceRepo.Update(txCtx, existing); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		for _, item := range items {
			if err := s.invoiceRepo.CreateItem(txCtx, item); err != nil {
				return fmt.Errorf("create item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice updated",
		zap.String("invoice_id", invoiceID),
		zap.Int64("total_cents", existing.TotalCents))

	return existing, nil
}

func (s *invoiceServiceImpl) Delete(ctx context.Context, invoiceID, userID string) error {
	existing, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("get invoice: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return billing.ErrNotFound
	}

	if err := s.invoiceRepo.Delete(ctx, invoiceID); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	s.logger.Info("Invoice deleted",
		zap.String("invoice_id", invoiceID),
		zap.String("invoice_number", existing.InvoiceNumber))
	return nil
}

func (s *invoiceServiceImpl) AddPayment(ctx context.Context, invoiceID, userID string, in PaymentInput) (*entity.Payment, error) {
	var v billing.Validator
	if in.Amount <= 0 {
		v.Fail("amount", "amount must be positive")
	}
	if in.Date.IsZero() {
		v.Fail("date", "date is required")
	}
	if !entity.ValidPaymentMethod(in.Method) {
		v.Fail("method", "unknown payment method")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if invoice == nil || invoice.UserID != userID {
		return nil, billing.ErrNotFound
	}

	payment := &entity.Payment{
		ID:          uuid.NewString(),
		InvoiceID:   invoiceID,
		AmountCents: billing.ToCents(in.Amount),
		Date:        in.Date,
		Method:      in.Method,
		Reference:   in.Reference,
		Notes:       in.Notes,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("invoice_id", invoiceID),
		zap.Int64("amount_cents", payment.AmountCents))

	return payment, nil
}
