package models

import "github.com/google/uuid"

// Principal is the resolved identity of a request's caller.
type Principal struct {
	ID      uuid.UUID
	IsAdmin bool
}
