// Package convo reshapes a generator payload for APIs that take the system
// prompt separately and expect user and model turns to alternate.
package convo

import (
	"strings"

	"github.com/sweetpotato0/voyager/message"
)

// Turn is one or more consecutive messages of the same role.
type Turn struct {
	Role  message.Role
	Texts []string
}

// Text joins the turn's messages with blank lines.
func (t Turn) Text() string {
	return strings.Join(t.Texts, "\n\n")
}

// Split separates system messages from the conversation, merges consecutive
// messages of one role and drops assistant turns that precede the first
// user turn.
func Split(msgs []*message.Message) (system string, turns []Turn) {
	var sys []string
	for _, m := range msgs {
		if m == nil {
			continue
		}
		switch m.Role {
		case message.RoleSystem:
			if m.Content != "" {
				sys = append(sys, m.Content)
			}
			continue
		case message.RoleAssistant:
			if len(turns) == 0 {
				continue
			}
		}
		if n := len(turns); n > 0 && turns[n-1].Role == m.Role {
			turns[n-1].Texts = append(turns[n-1].Texts, m.Content)
			continue
		}
		turns = append(turns, Turn{Role: m.Role, Texts: []string{m.Content}})
	}
	return strings.Join(sys, "\n"), turns
}
