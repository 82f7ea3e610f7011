package pipeline

import (
	"context"

	"mindroute/pkg/conversation"
	"mindroute/pkg/persona"
	providertypes "mindroute/pkg/provider/types"
)

// Responder answers the newest message in the voice of one persona. Only the
// newest message is sent; earlier turns are never replayed.
type Responder struct {
	persona persona.Name
	prompt  string
	client  ModelClient
}

func NewResponder(name persona.Name, prompt string, client ModelClient) *Responder {
	return &Responder{persona: name, prompt: prompt, client: client}
}

func (r *Responder) Persona() persona.Name {
	return r.persona
}

// Reply is the appended assistant message plus provider accounting.
type Reply struct {
	Message  conversation.Message
	Metadata providertypes.Metadata
}

func (r *Responder) Respond(ctx context.Context, state *conversation.State) (Reply, error) {
	last, ok := state.Last()
	if !ok {
		return Reply{}, &StageError{Stage: StageRouted, Kind: ErrEmptyHistory}
	}

	completion, err := r.client.Complete(ctx, r.prompt, last.Content)
	if err != nil {
		return Reply{}, &StageError{Stage: StageRouted, Kind: ErrResponseFailed, Err: err}
	}

	return Reply{
		Message:  state.Append(conversation.RoleAssistant, completion.Text),
		Metadata: completion.Metadata,
	}, nil
}
