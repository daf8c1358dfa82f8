package domain

import "time"

// UserProfile is the users collection document, keyed by the identity's user id.
type UserProfile struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	Address      string    `json:"address,omitempty" bson:"address,omitempty"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
