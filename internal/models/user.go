package models

// Role represents user role in the quiz service.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ParseRole maps a request value to a Role. Empty input yields ok=false.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleTeacher:
		return RoleTeacher, true
	case RoleStudent:
		return RoleStudent, true
	default:
		return "", false
	}
}

// UserPublic is a user without its credential, for API responses.
type UserPublic struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
