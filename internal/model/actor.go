package model

// Role values carried in the JWT "role" claim.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Actor identifies who is performing an operation.  Ownership checks in the
// lifecycle manager accept the owning user or any administrator.
type Actor struct {
	UserID uint64
	Role   string
}

// Admin reports whether the actor carries the administrator role.
func (a Actor) Admin() bool { return a.Role == RoleAdmin }

// CanModify reports whether the actor may mutate a reservation owned by
// ownerID.
func (a Actor) CanModify(ownerID uint64) bool {
	return a.Admin() || a.UserID == ownerID
}
