package domain

import "time"

// Role is the authorization role of a board account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole normalises a wire role string. Unknown values fall back to RoleUser.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Identity is the authenticated account as seen by the client. It only exists
// while a Credential is held.
type Identity struct {
	AccountID   int64  `json:"accountId"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Credential is the bearer token plus the display name it was issued for.
type Credential struct {
	Token       string
	DisplayName string
}

// Account is the remote authority's record of a board account. The client only
// sees it through AdminAccount; the full record lives in the API stand-in.
type Account struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         Role
	Suspension   *SuspensionRecord
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AdminAccount is the moderator view of an account returned by the account listing.
type AdminAccount struct {
	ID          int64             `json:"id"`
	Username    string            `json:"username"`
	DisplayName string            `json:"displayName"`
	Role        Role              `json:"role"`
	Suspension  *SuspensionRecord `json:"suspension,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Status derives the display status of the account at now.
func (a AdminAccount) Status(now time.Time) RecordStatus {
	return DeriveStatus(a.Suspension, now)
}
