package domain

import "time"

// User is an identity row backing client, staff and admin actors.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	MemberID     *int64
	CreatedAt    time.Time
}

// Actor projects the user onto the identity the core reads.
func (u *User) Actor() Actor {
	a := Actor{ID: u.ID, Role: u.Role}
	if u.MemberID != nil {
		id := *u.MemberID
		a.MemberID = &id
	}
	return a
}
