package dto

// AddCartRequest places a course in a user's cart.
type AddCartRequest struct {
	Email    string `json:"email" validate:"required,email"`
	CourseID string `json:"course_id" validate:"required,uuid"`
}
