package models

const UsersCollection = "users"

type Role string

const (
	RoleVisitor Role = "VISITOR"
	RoleEditor  Role = "EDITOR"
	RoleAdmin   Role = "ADMIN"
)

var Roles = []Role{RoleVisitor, RoleEditor, RoleAdmin}

// ParseRole maps a stored role value to a Role. Empty and unknown values are visitors.
func ParseRole(value string) Role {
	for _, r := range Roles {
		if string(r) == value {
			return r
		}
	}
	return RoleVisitor
}

func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// CanManageEvents reports whether the role may create, change and inspect all events.
func (r Role) CanManageEvents() bool {
	return r == RoleEditor || r == RoleAdmin
}

// UserSummary is the reduced user projection embedded in other payloads.
// Email is only filled where the caller is allowed to see it.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
