package model

import (
	"fmt"
	"time"
)

// UserRole is a closed enumeration; the numeric value is what travels on the wire.
type UserRole int32

const (
	UserRoleUnspecified UserRole = 0
	UserRoleAdmin       UserRole = 1
	UserRoleUser        UserRole = 2
	UserRoleViewer      UserRole = 3
)

var userRoleNames = map[UserRole]string{
	UserRoleUnspecified: "USER_ROLE_UNSPECIFIED",
	UserRoleAdmin:       "USER_ROLE_ADMIN",
	UserRoleUser:        "USER_ROLE_USER",
	UserRoleViewer:      "USER_ROLE_VIEWER",
}

func (r UserRole) String() string {
	if name, ok := userRoleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("USER_ROLE(%d)", int32(r))
}

// Valid reports whether r is one of the declared roles.
func (r UserRole) Valid() bool {
	_, ok := userRoleNames[r]
	return ok
}

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name,omitempty"`
	Role      *UserRole  `json:"role,omitempty"`
	WorkOSID  *string    `json:"workosId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
