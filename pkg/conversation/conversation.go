// Package conversation holds the in-process state carried between pipeline turns.
package conversation

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole accepts any casing of the three known roles.
func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleUser, RoleAssistant, RoleSystem:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

type Category string

const (
	CategoryEmotional Category = "emotional"
	CategoryLogical   Category = "logical"
)

// Categories lists the labels a classifier may return, in schema order.
func Categories() []Category {
	return []Category{CategoryEmotional, CategoryLogical}
}

func (c Category) Valid() bool {
	return c == CategoryEmotional || c == CategoryLogical
}

// Message is immutable once appended.
type Message struct {
	Role    Role
	Content string
	At      time.Time
}

// State is a single conversation. Messages are append-only and ordered by
// arrival. It is not safe for concurrent use; one caller drives it at a time.
type State struct {
	messages []Message
	category *Category
	now      func() time.Time
}

func New() *State {
	return &State{now: time.Now}
}

// Append records a new message and returns it with its timestamp set.
// Content is stored as given.
func (s *State) Append(role Role, content string) Message {
	now := s.now
	if now == nil {
		now = time.Now
	}

	msg := Message{
		Role:    role,
		Content: content,
		At:      now().UTC(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Last returns the newest message, or false when the state is empty.
func (s *State) Last() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

func (s *State) Len() int {
	return len(s.messages)
}

// Messages returns a copy of the history.
func (s *State) Messages() []Message {
	if len(s.messages) == 0 {
		return nil
	}

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Category returns the classification of the current turn, if any.
func (s *State) Category() (Category, bool) {
	if s.category == nil {
		return "", false
	}
	return *s.category, true
}

func (s *State) SetCategory(category Category) {
	s.category = &category
}

func (s *State) ClearCategory() {
	s.category = nil
}
