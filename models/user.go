package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles assignable to a user account.
const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
)

// User represents a registered account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	FirstName    string             `bson:"firstName,omitempty" json:"firstName"`
	LastName     string             `bson:"lastName,omitempty" json:"lastName"`
	Avatar       string             `bson:"avatar,omitempty" json:"avatar"`
	Bio          string             `bson:"bio,omitempty" json:"bio"`
	Role         string             `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuthorSummary is the minimal author projection attached to posts and comments.
type AuthorSummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Username  string             `bson:"username" json:"username"`
	FirstName string             `bson:"firstName,omitempty" json:"firstName"`
	LastName  string             `bson:"lastName,omitempty" json:"lastName"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar"`
}

// Summary projects the user down to the fields exposed alongside content.
func (u *User) Summary() AuthorSummary {
	return AuthorSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
	}
}
