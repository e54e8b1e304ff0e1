package session

import "errors"

// Role identifies the author of a turn.
type Role string

// Turn roles. Order of turns is semantically meaningful: the transcript is
// replayed to the model verbatim.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ErrSessionNotFound indicates an append against a session id that was
// never initialized via GetOrCreate.
var ErrSessionNotFound = errors.New("session not found")
