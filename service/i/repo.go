package i

import (
	"context"
	"errors"

	"github.com/beka-birhanu/reeborg-api/game"
	dmn "github.com/beka-birhanu/reeborg-api/identity"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameConflict = errors.New("username conflict")
)

// UserRepo defines the interface for user persistence operations.
type UserRepo interface {
	// Save inserts or updates a user in the repository.
	// If the user already exists, it updates the record. Otherwise, it creates a new one.
	Save(user *dmn.User) error

	// ByID retrieves a user by their unique ID.
	// Returns an error if the user is not found or in case of an unexpected error.
	ByID(id uuid.UUID) (*dmn.User, error)

	// ByUsername retrieves a user by their username.
	// Returns an error if the user is not found or in case of an unexpected error.
	ByUsername(username string) (*dmn.User, error)
}

// RunRepo stores finished exploration runs.
type RunRepo interface {
	Save(ctx context.Context, run *game.RunRecord) error
	// ByOwner returns the owner's runs, newest first, at most limit of them.
	ByOwner(ctx context.Context, owner uuid.UUID, limit int) ([]*game.RunRecord, error)
}
