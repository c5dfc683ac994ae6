package models

import "time"

// Audit actions recorded after privileged mutations.
const (
	AuditActionRolePromote  = "ROLE_PROMOTE"
	AuditActionUserDelete   = "USER_DELETE"
	AuditActionCourseStatus = "COURSE_STATUS"
	AuditActionCheckout     = "CHECKOUT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"_id"`
	ActorEmail string    `db:"actor_email" json:"actor_email"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
