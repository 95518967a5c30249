package entity

// Role names granted to the static accounts.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Account is an API caller allowed through HTTP Basic authentication.
// Accounts live in memory only; PasswordHash is a bcrypt hash.
type Account struct {
	Username     string
	PasswordHash string
	Roles        []string
}

