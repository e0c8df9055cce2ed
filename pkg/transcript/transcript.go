// Package transcript persists the ordered turns of one chat session.
package transcript

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/minhyannv/chatgpt-cli-go/pkg/apperr"
)

// Role is the role of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message. It is the durable storage format.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn builds a user turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Transcript is the ordered history of one session. Order is conversation order.
type Transcript []Turn

// Clone returns a copy that shares no backing array with t.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// SessionKey identifies a session. The core treats it as opaque; only the
// stores turn it into a location.
type SessionKey struct {
	ParentPID int
	StartUnix int64
}

// IsZero reports whether the key was never set.
func (k SessionKey) IsZero() bool {
	return k.ParentPID == 0 && k.StartUnix == 0
}

// String renders the key as "<ppid>/<start>".
func (k SessionKey) String() string {
	return strconv.Itoa(k.ParentPID) + "/" + strconv.FormatInt(k.StartUnix, 10)
}

func (k SessionKey) segments() []string {
	return []string{strconv.Itoa(k.ParentPID), strconv.FormatInt(k.StartUnix, 10)}
}

// encode renders t as a single flat JSON array.
func encode(t Transcript) ([]byte, error) {
	if t == nil {
		t = Transcript{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, apperr.Storage("encode transcript", err)
	}
	return b, nil
}

// decode parses a persisted transcript. Empty content is an empty transcript;
// anything else that is not a JSON array of role-tagged turns is malformed.
func decode(b []byte, where string) (Transcript, error) {
	if strings.TrimSpace(string(b)) == "" {
		return Transcript{}, nil
	}
	var t Transcript
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, apperr.Storage("malformed transcript at "+where, err)
	}
	for i, turn := range t {
		// null elements decode to a zero turn and fail here too.
		if !turn.Role.Valid() {
			return nil, apperr.Storage("malformed transcript at "+where, fmt.Errorf("turn %d has invalid role %q", i, turn.Role))
		}
	}
	if t == nil {
		t = Transcript{}
	}
	return t, nil
}
