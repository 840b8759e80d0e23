package storage

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const sessionsPrefix = "sessions/"

// SessionID names a stored test session.
type SessionID uuid.UUID

// NewSessionID returns a random (version 4) id.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID parses the canonical text form of a version 4 uuid.
func ParseSessionID(s string) (SessionID, error) {
	const msg = "parse session id"
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, errors.Wrapf(ErrInvalidSessionID, "%s %q: %v", msg, s, err)
	}
	if u.Version() != 4 {
		return SessionID{}, errors.Wrapf(ErrInvalidSessionID, "%s %q: version %d", msg, s, u.Version())
	}
	return SessionID(u), nil
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// BlobName is the backend name the session is kept under.
func (id SessionID) BlobName() string {
	return sessionsPrefix + id.String()
}

func (id SessionID) IsZero() bool {
	return id == SessionID{}
}
