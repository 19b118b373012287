package models

import "time"

type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Location     string    `json:"location"`
	Image        string    `json:"image"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicProfile is the subset of a user that other users may see next to
// listings and messages.
type PublicProfile struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Location string `json:"location,omitempty"`
}

func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Name:     u.Name,
		Image:    u.Image,
		Location: u.Location,
	}
}

// Participant drops the location, matching what chat payloads expose.
func (u User) Participant() PublicProfile {
	return PublicProfile{
		ID:    u.ID,
		Name:  u.Name,
		Image: u.Image,
	}
}
