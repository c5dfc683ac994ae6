package dto

// RecordPaymentRequest appends a payment to a user's history.
type RecordPaymentRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	CourseID      string  `json:"course_id" validate:"required,uuid"`
	CartID        *string `json:"cart_id" validate:"omitempty,uuid"`
	CourseName    string  `json:"course_name" validate:"max=200"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	TransactionID string  `json:"transaction_id" validate:"required,max=255"`
}

// PaymentIntentRequest asks the provider for a client secret.
type PaymentIntentRequest struct {
	Price float64 `json:"price" validate:"gt=0"`
}

// PaymentIntentResponse returns the client secret to the browser.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CheckoutRequest completes a purchase of a cart item.
type CheckoutRequest struct {
	CartID          string `json:"cart_id" validate:"required,uuid"`
	PaymentIntentID string `json:"payment_intent_id" validate:"required,max=255"`
}
