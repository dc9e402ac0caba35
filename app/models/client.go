package models

import "time"

// Client is a registered customer account.
type Client struct {
	ID           string    `json:"id"`
	LastName     string    `json:"nom"`
	FirstName    string    `json:"prenom"`
	Phone        string    `json:"telephone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password,omitempty"`
	RegisteredAt time.Time `json:"dateInscription"`
}

// GetID satisfies repositories.Entity.
func (c Client) GetID() string { return c.ID }

// Public strips the password hash before the client leaves the service.
func (c Client) Public() Client {
	c.PasswordHash = ""
	return c
}

// FullName is "<prenom> <nom>".
func (c Client) FullName() string { return c.FirstName + " " + c.LastName }
