package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"mindroute/pkg/conversation"
	"mindroute/pkg/persona"
	providertypes "mindroute/pkg/provider/types"
)

func newTestPipeline(t *testing.T, client *fakeClient, opts ...Option) (*Pipeline, *recordingObserver) {
	t.Helper()

	observer := &recordingObserver{}
	p, err := New(client, testPrompts(), append([]Option{WithObserver(observer)}, opts...)...)
	require.NoError(t, err)
	return p, observer
}

func TestRunEmotionalTurn(t *testing.T) {
	client := &fakeClient{
		label: "emotional",
		reply: "That sounds heavy. What has been on your mind?",
		usage: &providertypes.TokenUsage{InputTokens: 40, OutputTokens: 12, TotalTokens: 52},
	}
	p, observer := newTestPipeline(t, client)

	state := conversation.New()
	state.Append(conversation.RoleUser, "  I feel Overwhelmed ")

	turn, err := p.Run(context.Background(), state)
	require.NoError(t, err)

	messages := state.Messages()
	require.Len(t, messages, 3)
	require.Equal(t, conversation.RoleAssistant, messages[1].Role)
	require.Equal(t, "i feel overwhelmed", messages[1].Content)
	require.Equal(t, conversation.RoleAssistant, messages[2].Role)
	require.Equal(t, client.reply, messages[2].Content)

	category, ok := state.Category()
	require.True(t, ok)
	require.Equal(t, conversation.CategoryEmotional, category)

	require.Equal(t, StageEnd, turn.Stage)
	require.Equal(t, conversation.CategoryEmotional, turn.Category)
	require.Equal(t, persona.Therapist, turn.Persona)
	require.Equal(t, messages[2], turn.Reply)
	require.Equal(t, int64(52), turn.Usage.TotalTokens)
	require.Equal(t, "fake-model", turn.Model)

	require.Equal(t, []string{"i feel overwhelmed"}, client.classifyTexts)
	require.Len(t, client.completes, 1)
	require.Equal(t, "therapist prompt", client.completes[0].systemPrompt)
	require.Equal(t, "i feel overwhelmed", client.completes[0].userText)

	require.Equal(t, []Stage{StageStart, StageNormalized, StageClassified, StageRouted, StageResponded, StageEnd}, observer.stages())
	require.Equal(t, EventTurnCompleted, observer.events[len(observer.events)-1].Type)
}

func TestRunLogicalTurn(t *testing.T) {
	client := &fakeClient{label: "logical", reply: "4"}
	p, _ := newTestPipeline(t, client)

	state := conversation.New()
	state.Append(conversation.RoleUser, "What is 2+2?")

	turn, err := p.Run(context.Background(), state)
	require.NoError(t, err)
	require.Equal(t, 3, state.Len())
	require.Equal(t, persona.Logical, turn.Persona)
	require.Equal(t, "logical prompt", client.completes[0].systemPrompt)
	require.Equal(t, "what is 2+2?", client.completes[0].userText)

	last, ok := state.Last()
	require.True(t, ok)
	require.Equal(t, "4", last.Content)
}

func TestRunEmptyHistory(t *testing.T) {
	client := &fakeClient{label: "logical", reply: "unused"}
	p, observer := newTestPipeline(t, client)
	state := conversation.New()

	turn, err := p.Run(context.Background(), state)
	require.ErrorIs(t, err, ErrEmptyHistory)
	require.Equal(t, "empty_history", KindFromError(err))
	require.Equal(t, StageStart, turn.Stage)
	require.Zero(t, state.Len())
	require.Empty(t, client.classifyTexts)
	require.Empty(t, client.completes)

	require.Equal(t, []Stage{StageStart, StageStart}, observer.stages())
	require.Equal(t, EventTurnFailed, observer.events[1].Type)
}

func TestRunClassificationFailedKeepsEcho(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	client := &fakeClient{classifyErr: cause}
	p, _ := newTestPipeline(t, client)

	state := conversation.New()
	state.Append(conversation.RoleUser, "Hello")

	turn, err := p.Run(context.Background(), state)
	require.ErrorIs(t, err, ErrClassificationFailed)
	require.ErrorIs(t, err, cause)
	require.Equal(t, StageNormalized, turn.Stage)
	require.Equal(t, 2, state.Len())
	require.Empty(t, client.completes)

	_, ok := state.Category()
	require.False(t, ok)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageNormalized, stageErr.Stage)
}

func TestRunResponseFailed(t *testing.T) {
	cause := errors.New("rate limited")
	client := &fakeClient{label: "emotional", completeErr: cause}
	p, _ := newTestPipeline(t, client)

	state := conversation.New()
	state.Append(conversation.RoleUser, "I miss home")

	turn, err := p.Run(context.Background(), state)
	require.ErrorIs(t, err, ErrResponseFailed)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "response_failed", KindFromError(err))
	require.Equal(t, StageRouted, turn.Stage)
	require.Equal(t, persona.Therapist, turn.Persona)
	require.Equal(t, 2, state.Len())
	require.Len(t, client.completes, 1)
}

func TestRunClearsStaleCategory(t *testing.T) {
	client := &fakeClient{label: "emotional", reply: "I hear you."}
	p, _ := newTestPipeline(t, client)

	state := conversation.New()
	state.Append(conversation.RoleUser, "I am upset")
	_, err := p.Run(context.Background(), state)
	require.NoError(t, err)

	client.label = "unknown"
	state.Append(conversation.RoleUser, "What time is it?")
	_, err = p.Run(context.Background(), state)
	require.ErrorIs(t, err, ErrClassificationFailed)

	_, ok := state.Category()
	require.False(t, ok)
	require.Equal(t, 5, state.Len())
}

func TestRunMultipleTurnsGrowHistory(t *testing.T) {
	client := &fakeClient{label: "logical", reply: "ok"}
	p, _ := newTestPipeline(t, client)

	state := conversation.New()
	for i, input := range []string{"one", "two", "three"} {
		state.Append(conversation.RoleUser, input)
		_, err := p.Run(context.Background(), state)
		require.NoError(t, err)
		require.Equal(t, (i+1)*3, state.Len())
	}
	require.Equal(t, []string{"one", "two", "three"}, client.classifyTexts)
}

func TestRunWithUserEchoRole(t *testing.T) {
	client := &fakeClient{label: "logical", reply: "ok"}
	p, _ := newTestPipeline(t, client, WithEchoRole(conversation.RoleUser))

	state := conversation.New()
	state.Append(conversation.RoleUser, "Hi")
	_, err := p.Run(context.Background(), state)
	require.NoError(t, err)
	require.Equal(t, conversation.RoleUser, state.Messages()[1].Role)
}

func TestRouteStopsBeforeResponder(t *testing.T) {
	client := &fakeClient{label: "emotional"}
	p, _ := newTestPipeline(t, client)

	state := conversation.New()
	state.Append(conversation.RoleUser, "I feel lost")

	turn, err := p.Route(context.Background(), state)
	require.NoError(t, err)
	require.Equal(t, StageRouted, turn.Stage)
	require.Equal(t, persona.Therapist, turn.Persona)
	require.Empty(t, client.completes)
	require.Equal(t, 2, state.Len())
}

func TestNewValidatesInputs(t *testing.T) {
	_, err := New(nil, testPrompts())
	require.Error(t, err)

	prompts := testPrompts()
	prompts.Classifier = " "
	_, err = New(&fakeClient{}, prompts)
	require.Error(t, err)

	prompts = testPrompts()
	prompts.Therapist = ""
	_, err = New(&fakeClient{}, prompts)
	require.Error(t, err)
}
