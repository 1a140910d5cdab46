package entity

import "github.com/google/uuid"

// User is the profile paired one-to-one with an Auth.
type User struct {
	Base
	AuthID      uuid.UUID `db:"auth_id"`
	Name        string    `db:"name"`
	PhoneNumber *string   `db:"phone_number"`
	Avatar      *string   `db:"avatar"`
}

// Account is a User read together with its Auth.
type Account struct {
	Auth *Auth
	User *User
}
