package session

import (
	"context"
	"errors"

	"github.com/antoniostano/helpdesk/internal/intake"
)

var ErrNotFound = errors.New("session not found")

// Store owns conversation states. Implementations hand out copies; changes
// become visible only through Save.
type Store interface {
	// GetOrCreate returns the state for id, creating a fresh one when id is
	// unknown. An empty id always creates a session with a generated id.
	GetOrCreate(ctx context.Context, id string) (state intake.State, created bool, err error)
	Save(ctx context.Context, state intake.State) error
	Close() error
}
