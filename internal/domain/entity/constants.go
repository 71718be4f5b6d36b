package entity

// Project status values
const (
	ProjectStatusActive    = "ACTIVE"
	ProjectStatusCompleted = "COMPLETED"
	ProjectStatusArchived  = "ARCHIVED"
)

// Invoice status values
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusSent      = "SENT"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusOverdue   = "OVERDUE"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice item types
const (
	ItemTypeTime    = "TIME"
	ItemTypeExpense = "EXPENSE"
	ItemTypeFixed   = "FIXED"
)

// Payment methods
const (
	PaymentMethodBankTransfer = "BANK_TRANSFER"
	PaymentMethodCreditCard   = "CREDIT_CARD"
	PaymentMethodPaypal       = "PAYPAL"
	PaymentMethodCash         = "CASH"
	PaymentMethodCheck        = "CHECK"
	PaymentMethodOther        = "OTHER"
)

// User roles
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// ValidInvoiceStatus reports whether s is a known invoice status.
func ValidInvoiceStatus(s string) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// ValidItemType reports whether s is a known invoice item type.
func ValidItemType(s string) bool {
	switch s {
	case ItemTypeTime, ItemTypeExpense, ItemTypeFixed:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether s is a known payment method.
func ValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodBankTransfer, PaymentMethodCreditCard, PaymentMethodPaypal,
		PaymentMethodCash, PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}
