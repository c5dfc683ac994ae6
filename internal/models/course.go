package models

import "time"

// CourseStatus tracks admin review of a course.
type CourseStatus string

const (
	CourseStatusPending  CourseStatus = "pending"
	CourseStatusApproved CourseStatus = "approved"
	CourseStatusDenied   CourseStatus = "denied"
)

// Valid reports whether s is a known status.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusPending, CourseStatusApproved, CourseStatusDenied:
		return true
	}
	return false
}

// Course is a class offered by an instructor. AvailableSeats and Enrollment
// always move together so that AvailableSeats = TotalSeats - Enrollment.
type Course struct {
	ID             string       `db:"id" json:"_id"`
	Name           string       `db:"name" json:"name"`
	Instructor     string       `db:"instructor" json:"instructor"`
	Email          string       `db:"email" json:"email"`
	Image          string       `db:"image" json:"image"`
	Price          float64      `db:"price" json:"price"`
	TotalSeats     int          `db:"total_seats" json:"total_seats"`
	AvailableSeats int          `db:"available_seats" json:"available_seats"`
	Enrollment     int          `db:"enrollment" json:"enrollment"`
	Status         CourseStatus `db:"status" json:"status"`
	Feedback       *string      `db:"feedback" json:"feedback,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Email  string
	Status CourseStatus
}
