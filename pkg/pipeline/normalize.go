package pipeline

import (
	"strings"

	"mindroute/pkg/conversation"
)

// Normalizer echoes the newest message back into the history in canonical
// form. The echo is recorded under EchoRole, which is the assistant role
// unless configured otherwise.
type Normalizer struct {
	EchoRole conversation.Role
}

func (n Normalizer) Normalize(state *conversation.State) (conversation.Message, error) {
	last, ok := state.Last()
	if !ok {
		return conversation.Message{}, &StageError{Stage: StageStart, Kind: ErrEmptyHistory}
	}

	role := n.EchoRole
	if role == "" {
		role = conversation.RoleAssistant
	}

	return state.Append(role, NormalizeText(last.Content)), nil
}

// NormalizeText lowercases s and strips surrounding whitespace. It is idempotent.
func NormalizeText(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
