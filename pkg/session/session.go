// Package session carries one conversation between pipeline turns for the
// lifetime of a process.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"mindroute/pkg/config"
	"mindroute/pkg/conversation"
	"mindroute/pkg/persona"
	"mindroute/pkg/pipeline"
	"mindroute/pkg/provider"
	providertypes "mindroute/pkg/provider/types"
)

var ErrEmptyMessage = errors.New("message cannot be empty")

type Runner interface {
	Run(ctx context.Context, state *conversation.State) (pipeline.Turn, error)
}

// Session owns the conversation state and serializes turns over it.
type Session struct {
	mu     sync.Mutex
	runner Runner
	state  *conversation.State
	usage  providertypes.TokenUsage
	turns  int
}

func New(runner Runner) *Session {
	return &Session{
		runner: runner,
		state:  conversation.New(),
	}
}

// Start checks the provider is reachable and returns a session wired to a
// pipeline built from cfg.
func Start(ctx context.Context, cfg *config.Config, log *slog.Logger, client provider.Client) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if client == nil {
		return nil, errors.New("provider client is required")
	}

	p, err := BuildPipeline(cfg, log, client)
	if err != nil {
		return nil, err
	}

	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	return New(p), nil
}

// BuildPipeline resolves persona prompts and pipeline options from cfg.
func BuildPipeline(cfg *config.Config, log *slog.Logger, client pipeline.ModelClient) (*pipeline.Pipeline, error) {
	if log == nil {
		log = slog.Default()
	}

	prompts, err := persona.Load(cfg.Personas)
	if err != nil {
		return nil, fmt.Errorf("resolve personas: %w", err)
	}

	echoRole := conversation.RoleAssistant
	if raw := strings.TrimSpace(cfg.Pipeline.EchoRole); raw != "" {
		echoRole, err = conversation.ParseRole(raw)
		if err != nil {
			return nil, fmt.Errorf("pipeline.echo_role: %w", err)
		}
	}

	return pipeline.New(client, prompts,
		pipeline.WithEchoRole(echoRole),
		pipeline.WithObserver(pipeline.LogObserver(log)),
	)
}

// Send records text as a user message and runs one turn. Messages appended
// before a failure stay in the transcript.
func (s *Session) Send(ctx context.Context, text string) (pipeline.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return pipeline.Turn{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Append(conversation.RoleUser, text)
	turn, err := s.runner.Run(ctx, s.state)
	s.turns++
	if turn.Usage != nil {
		s.usage = s.usage.Add(*turn.Usage)
	}

	return turn, err
}

func (s *Session) Transcript() []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Messages()
}

// Usage is the token usage summed over every reply of the session.
func (s *Session) Usage() providertypes.TokenUsage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.usage
}

func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.turns
}
