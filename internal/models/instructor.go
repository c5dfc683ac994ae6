package models

import (
	"time"

	"github.com/lib/pq"
)

// Instructor is a read-only teacher profile shown on the public site.
type Instructor struct {
	ID         string         `db:"id" json:"_id"`
	Name       string         `db:"name" json:"name"`
	Email      string         `db:"email" json:"email"`
	Image      string         `db:"image" json:"image"`
	NumClasses int            `db:"num_classes" json:"num_classes"`
	ClassNames pq.StringArray `db:"class_names" json:"class_names"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
