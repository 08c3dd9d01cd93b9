// Package session records which token is the live one for each teacher.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a teacher has no live session.
var ErrNotFound = errors.New("session not found")

// Store maps a teacher UID to the ID of their current token.
type Store interface {
	Set(ctx context.Context, uid, tokenID string, ttl time.Duration) error
	Get(ctx context.Context, uid string) (string, error)
	Delete(ctx context.Context, uid string) error
}
