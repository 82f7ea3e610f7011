package pipeline

import (
	"context"

	"mindroute/pkg/persona"
	providertypes "mindroute/pkg/provider/types"
)

type completeCall struct {
	systemPrompt string
	userText     string
}

type fakeClient struct {
	label       string
	classifyErr error
	reply       string
	completeErr error
	usage       *providertypes.TokenUsage

	classifyTexts []string
	schemas       []providertypes.EnumSchema
	completes     []completeCall
}

func (f *fakeClient) Classify(_ context.Context, _ string, userText string, schema providertypes.EnumSchema) (string, error) {
	f.classifyTexts = append(f.classifyTexts, userText)
	f.schemas = append(f.schemas, schema)
	if f.classifyErr != nil {
		return "", f.classifyErr
	}
	return f.label, nil
}

func (f *fakeClient) Complete(_ context.Context, systemPrompt string, userText string) (providertypes.Completion, error) {
	f.completes = append(f.completes, completeCall{systemPrompt: systemPrompt, userText: userText})
	if f.completeErr != nil {
		return providertypes.Completion{}, f.completeErr
	}
	return providertypes.Completion{
		Text:     f.reply,
		Metadata: providertypes.Metadata{Provider: "fake", Model: "fake-model", Usage: f.usage},
	}, nil
}

func testPrompts() persona.Prompts {
	return persona.Prompts{
		Classifier: "classify prompt",
		Therapist:  "therapist prompt",
		Logical:    "logical prompt",
	}
}

type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) Observe(event Event) {
	r.events = append(r.events, event)
}

func (r *recordingObserver) stages() []Stage {
	out := make([]Stage, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Stage)
	}
	return out
}
