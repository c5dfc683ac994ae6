package payment

import (
	"errors"
	"math"
)

// Intent statuses reported by the provider that matter to checkout.
const (
	StatusSucceeded       = "succeeded"
	StatusRequiresPayment = "requires_payment_method"
	StatusCanceled        = "canceled"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrProviderDown  = errors.New("payment provider unavailable")
	ErrDeclined      = errors.New("payment declined")
	ErrNotFound      = errors.New("payment intent not found")
)

// IntentRequest describes a payment intent to create.
type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Email       string
	Metadata    map[string]string
}

// Intent is the provider-agnostic view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	AmountMinor  int64
	Currency     string
	Status       string
	Metadata     map[string]string
}

// Succeeded reports whether funds were captured.
func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == StatusSucceeded
}

// Refund is the result of a compensating refund.
type Refund struct {
	ID       string
	IntentID string
	Status   string
}

// ToMinorUnits converts a decimal price to the provider's integer minor units.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
