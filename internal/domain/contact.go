package domain

import "time"

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	Owner     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
