// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account. Email and Username are unique at the
// storage layer; Avatar is an opaque image reference and may be empty.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"-"`
}

// UserView is a User as seen by a particular viewer.
// IsSubscribed is false for anonymous viewers and for the user themself.
type UserView struct {
	User
	IsSubscribed bool `json:"is_subscribed"`
}

// Subscription is the materialized view of a followed author: the profile,
// how many recipes they have written, and a capped preview of the newest ones.
type Subscription struct {
	UserView
	RecipesCount int           `json:"recipes_count"`
	Recipes      []RecipeBrief `json:"recipes"`
}
