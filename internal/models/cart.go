package models

import "time"

// CartItem is a course a student selected but has not paid for yet.
type CartItem struct {
	ID         string    `db:"id" json:"_id"`
	Email      string    `db:"email" json:"email"`
	CourseID   string    `db:"course_id" json:"course_id"`
	Name       string    `db:"name" json:"name"`
	Image      string    `db:"image" json:"image"`
	Instructor string    `db:"instructor" json:"instructor"`
	Price      float64   `db:"price" json:"price"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
