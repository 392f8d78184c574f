package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is owned by the identity flow; the ledger core reads it but never
// mutates it.
type User struct {
	ID           uuid.UUID
	Email        string
	Phone        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
