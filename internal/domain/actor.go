package domain

type UserRole string

const (
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleMember UserRole = "MEMBER"
)

// Actor is the caller of a service operation as resolved by the
// authentication layer. For members UserID is their member id.
type Actor struct {
	UserID int32    `json:"user_id"`
	Role   UserRole `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}

// CanActFor reports whether the actor may operate on resources owned by memberID.
func (a Actor) CanActFor(memberID int32) bool {
	return a.IsAdmin() || a.UserID == memberID
}
