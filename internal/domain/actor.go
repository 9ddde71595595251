package domain

// Role enumerates the identities the core distinguishes.
type Role string

const (
	RoleClient       Role = "client"
	RoleStaffPending Role = "staff_pending"
	RoleStaff        Role = "staff"
	RoleAdmin        Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleStaffPending, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of a core operation.
//
// For RoleStaffPending the ID is the staff member id (the registrant has no
// user row yet). For RoleStaff, MemberID links back to the onboarding profile.
type Actor struct {
	ID       int64
	Role     Role
	MemberID *int64
}

func ClientActor(id int64) Actor { return Actor{ID: id, Role: RoleClient} }

func AdminActor(id int64) Actor { return Actor{ID: id, Role: RoleAdmin} }

func StaffActor(id, memberID int64) Actor {
	return Actor{ID: id, Role: RoleStaff, MemberID: &memberID}
}

func StaffPendingActor(memberID int64) Actor {
	return Actor{ID: memberID, Role: RoleStaffPending, MemberID: &memberID}
}

// IsOperator reports whether the actor answers chats (staff or admin).
func (a Actor) IsOperator() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// OwnsMember reports whether the actor is the given onboarding profile.
func (a Actor) OwnsMember(memberID int64) bool {
	if a.Role != RoleStaff && a.Role != RoleStaffPending {
		return false
	}
	return a.MemberID != nil && *a.MemberID == memberID
}
