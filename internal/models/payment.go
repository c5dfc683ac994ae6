package models

import "time"

// PaymentRecord is a record of a captured payment. EnrolledAt is set once the
// payment has been spent on a seat and never cleared.
type PaymentRecord struct {
	ID            string     `db:"id" json:"_id"`
	Email         string     `db:"email" json:"email"`
	CourseID      string     `db:"course_id" json:"course_id"`
	CartID        *string    `db:"cart_id" json:"cart_id,omitempty"`
	CourseName    string     `db:"course_name" json:"course_name"`
	Amount        float64    `db:"amount" json:"amount"`
	TransactionID string     `db:"transaction_id" json:"transaction_id"`
	EnrolledAt    *time.Time `db:"enrolled_at" json:"enrolled_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
