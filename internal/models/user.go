package models

// Roles carried in authentication tokens.
const (
	RoleUser  = "user"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// User holds the account attributes the coordination layer cares about.
// Credential handling lives in an external auth service.
type User struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Email       string `db:"email" json:"email"`
	Role        string `db:"role" json:"role"`
	Blacklisted bool   `db:"blacklisted" json:"blacklisted"`
}

// Identity is the authenticated caller of a core operation. It is always
// passed explicitly; nothing reads ambient session state.
type Identity struct {
	UserID int64
	Role   string
}
