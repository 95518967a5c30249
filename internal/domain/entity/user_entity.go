package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
//
// ID is assigned by the store on first save and never changes afterwards.
// CreatedDate is written once; LastModifiedDate moves forward on every save.
type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
	Active           bool      `json:"active"`
}

// NewUser returns an unsaved, active user.
func NewUser(name, email string) *User {
	return &User{Name: name, Email: email, Active: true}
}

// IsNew reports whether the user has not been persisted yet.
func (u *User) IsNew() bool {
	return u.ID == 0
}
