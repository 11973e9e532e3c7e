package domain

import (
	"crypto/md5"
	"fmt"
	"time"
)

// Subscription niveles soportados para una cuenta.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

// ValidSubscription indica si el valor pertenece al enum de planes.
func ValidSubscription(s string) bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Subscription      string    `json:"subscription"`
	AvatarURL         string    `json:"avatarURL"`
	Verify            bool      `json:"verify"`
	VerificationToken *string   `json:"-"`
	Token             *string   `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

// Profile es la vista publica de un usuario; nunca expone hash ni tokens.
type Profile struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL"`
}

func (u User) Profile() Profile {
	return Profile{
		Email:        u.Email,
		Subscription: u.Subscription,
		AvatarURL:    u.AvatarURL,
	}
}

// DefaultAvatarURL deriva el identicon de gravatar a partir del email.
func DefaultAvatarURL(email string) string {
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon", sum)
}
