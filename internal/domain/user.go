package domain

type ContextKey string

const UserContextKey ContextKey = "user"

const RoleAdmin = "admin"

// User is the caller identity carried in a verified access token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
