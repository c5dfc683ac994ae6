package dto

// CourseRequest is the payload for creating or replacing a course.
// AvailableSeats is accepted from older clients that only send the seat
// count they want to offer; it stands in for TotalSeats when that is absent.
type CourseRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Instructor     string  `json:"instructor" validate:"max=200"`
	Image          string  `json:"image" validate:"omitempty,max=2048"`
	Price          float64 `json:"price" validate:"gte=0"`
	TotalSeats     int     `json:"total_seats" validate:"gte=0"`
	AvailableSeats *int    `json:"available_seats" validate:"omitempty,gte=0"`
}

// Seats resolves the seat capacity requested by the client.
func (r CourseRequest) Seats() int {
	if r.TotalSeats == 0 && r.AvailableSeats != nil {
		return *r.AvailableSeats
	}
	return r.TotalSeats
}

// FeedbackRequest carries admin feedback for a course.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,max=4000"`
}
