package pipeline

import (
	"context"
	"fmt"
	"strings"

	"mindroute/pkg/conversation"
	providertypes "mindroute/pkg/provider/types"
)

type Classifier struct {
	client ModelClient
	prompt string
	schema providertypes.EnumSchema
}

func NewClassifier(client ModelClient, prompt string, schema providertypes.EnumSchema) *Classifier {
	return &Classifier{client: client, prompt: prompt, schema: schema}
}

// Classify labels the newest message and records the category on state.
// No category is guessed when the model fails.
func (c *Classifier) Classify(ctx context.Context, state *conversation.State) (conversation.Category, error) {
	last, ok := state.Last()
	if !ok {
		return "", &StageError{Stage: StageNormalized, Kind: ErrEmptyHistory}
	}

	raw, err := c.client.Classify(ctx, c.prompt, last.Content, c.schema)
	if err != nil {
		return "", &StageError{Stage: StageNormalized, Kind: ErrClassificationFailed, Err: err}
	}

	category, err := ParseCategory(raw)
	if err != nil {
		return "", err
	}

	state.SetCategory(category)
	return category, nil
}

// ParseCategory maps a raw model label onto a conversation category. Casing
// and surrounding whitespace are ignored; any other label is a classification
// failure.
func ParseCategory(raw string) (conversation.Category, error) {
	category := conversation.Category(strings.ToLower(strings.TrimSpace(raw)))
	if !category.Valid() {
		return "", &StageError{
			Stage: StageNormalized,
			Kind:  ErrClassificationFailed,
			Err:   fmt.Errorf("unexpected category %q", raw),
		}
	}

	return category, nil
}
