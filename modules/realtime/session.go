package realtime

import "github.com/google/uuid"

// DefaultSendBuffer is the outbound frame capacity of a session.
const DefaultSendBuffer = 64

// Session is one live connection as seen by the hub. The transport drains
// Outbound and writes each frame to the wire.
type Session struct {
	id         string
	authUserID string
	send       chan []byte

	// owned by the hub goroutine
	userID string
	rooms  map[string]struct{}
}

// NewSession creates a session. authUserID is the user proven by the
// connection's token, or empty when the connection is unauthenticated.
func NewSession(authUserID string, buffer int) *Session {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Session{
		id:         uuid.New().String(),
		authUserID: authUserID,
		send:       make(chan []byte, buffer),
		rooms:      make(map[string]struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) AuthUserID() string {
	return s.authUserID
}

// Outbound yields frames for this session. It is closed when the session is
// unregistered or the hub shuts down.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}
