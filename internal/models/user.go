package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the access tier of a user. Historic records encoded the teacher
// tier as a boolean true on the same field; both the JSON decoder and the
// SQL scanner normalise that form to RoleTeacher.
type Role string

const (
	RoleUnset   Role = ""
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole maps stored or submitted role values onto the enumeration.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return RoleUnset, nil
	case "student":
		return RoleStudent, nil
	case "teacher", "instructor", "true":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnset, fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUnset, RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// UnmarshalJSON accepts a role string, null, or the legacy boolean form.
func (r *Role) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "false":
		*r = RoleUnset
		return nil
	case "true":
		*r = RoleTeacher
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("role must be a string: %w", err)
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Scan implements sql.Scanner.
func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = RoleUnset
		return nil
	case bool:
		if v {
			*r = RoleTeacher
		} else {
			*r = RoleUnset
		}
		return nil
	case []byte:
		parsed, err := ParseRole(string(v))
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	case string:
		parsed, err := ParseRole(v)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

// User is an account created on first sign-in.
type User struct {
	ID        string    `db:"id" json:"_id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Image     string    `db:"image" json:"image,omitempty"`
	Role      Role      `db:"role" json:"role,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoleStatus answers the role-membership probes used by the client.
type RoleStatus map[string]bool
