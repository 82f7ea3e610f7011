// Package pipeline runs one conversational turn: normalize, classify, route,
// respond. Each component appends to the shared conversation state and any
// failure halts the turn with the history kept as it was.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mindroute/pkg/conversation"
	"mindroute/pkg/persona"
	providertypes "mindroute/pkg/provider/types"
)

// ModelClient is the subset of a provider the pipeline needs.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt string, userText string) (providertypes.Completion, error)
	Classify(ctx context.Context, systemPrompt string, userText string, schema providertypes.EnumSchema) (string, error)
}

type Pipeline struct {
	normalizer Normalizer
	classifier *Classifier
	responders map[persona.Name]*Responder
	observer   Observer
	now        func() time.Time
}

type Option func(*Pipeline)

// WithEchoRole sets the role the normalizer records its echo under.
func WithEchoRole(role conversation.Role) Option {
	return func(p *Pipeline) {
		p.normalizer.EchoRole = role
	}
}

// WithObserver replaces the default slog observer. A nil observer disables events.
func WithObserver(observer Observer) Option {
	return func(p *Pipeline) {
		p.observer = observer
	}
}

func New(client ModelClient, prompts persona.Prompts, opts ...Option) (*Pipeline, error) {
	if client == nil {
		return nil, errors.New("model client is required")
	}
	if strings.TrimSpace(prompts.Classifier) == "" {
		return nil, errors.New("classifier prompt is required")
	}

	p := &Pipeline{
		normalizer: Normalizer{EchoRole: conversation.RoleAssistant},
		classifier: NewClassifier(client, prompts.Classifier, persona.ClassifierSchema()),
		responders: make(map[persona.Name]*Responder, len(persona.Names())),
		observer:   LogObserver(nil),
		now:        time.Now,
	}
	for _, name := range persona.Names() {
		prompt, err := prompts.For(name)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(prompt) == "" {
			return nil, fmt.Errorf("%s prompt is required", name)
		}
		responder := NewResponder(name, prompt, client)
		p.responders[responder.Persona()] = responder
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Turn summarizes how far a run got. It is returned on failure too.
type Turn struct {
	Stage    Stage
	Category conversation.Category
	Persona  persona.Name
	Reply    conversation.Message
	Provider string
	Model    string
	Usage    *providertypes.TokenUsage
}

// Run drives one turn over state, whose newest message is the user input.
// A category left by an earlier run is cleared first.
func (p *Pipeline) Run(ctx context.Context, state *conversation.State) (Turn, error) {
	return p.run(ctx, state, StageEnd)
}

// Route runs the turn only up to the routing decision; no responder is
// called. The normalized echo and category are still recorded on state.
func (p *Pipeline) Route(ctx context.Context, state *conversation.State) (Turn, error) {
	return p.run(ctx, state, StageRouted)
}

func (p *Pipeline) run(ctx context.Context, state *conversation.State, until Stage) (Turn, error) {
	startedAt := p.now()
	turn := Turn{Stage: StageStart}
	state.ClearCategory()
	p.emit(startedAt, turn, EventStageReached, nil)

	if _, err := p.normalizer.Normalize(state); err != nil {
		return turn, p.fail(startedAt, turn, err)
	}
	turn.Stage = StageNormalized
	p.emit(startedAt, turn, EventStageReached, nil)

	category, err := p.classifier.Classify(ctx, state)
	if err != nil {
		return turn, p.fail(startedAt, turn, err)
	}
	turn.Category = category
	turn.Stage = StageClassified
	p.emit(startedAt, turn, EventStageReached, nil)

	turn.Persona = Route(state)
	turn.Stage = StageRouted
	p.emit(startedAt, turn, EventStageReached, nil)
	if until <= StageRouted {
		return turn, nil
	}

	responder, ok := p.responders[turn.Persona]
	if !ok {
		return turn, p.fail(startedAt, turn, fmt.Errorf("no responder for persona %q", turn.Persona))
	}

	reply, err := responder.Respond(ctx, state)
	if err != nil {
		return turn, p.fail(startedAt, turn, err)
	}
	turn.Reply = reply.Message
	turn.Provider = reply.Metadata.Provider
	turn.Model = reply.Metadata.Model
	turn.Usage = reply.Metadata.Usage
	turn.Stage = StageResponded
	p.emit(startedAt, turn, EventStageReached, nil)

	turn.Stage = StageEnd
	p.emit(startedAt, turn, EventTurnCompleted, nil)
	return turn, nil
}

func (p *Pipeline) fail(startedAt time.Time, turn Turn, err error) error {
	p.emit(startedAt, turn, EventTurnFailed, err)
	return err
}

func (p *Pipeline) emit(startedAt time.Time, turn Turn, eventType EventType, err error) {
	if p.observer == nil {
		return
	}

	now := p.now()
	p.observer.Observe(Event{
		Type:     eventType,
		Stage:    turn.Stage,
		Category: turn.Category,
		Persona:  turn.Persona,
		Elapsed:  now.Sub(startedAt),
		Err:      err,
		At:       now.UTC(),
	})
}
