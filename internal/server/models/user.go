package models

// User is a registered account. Records are append-only: users are never
// mutated or deleted once created.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}
