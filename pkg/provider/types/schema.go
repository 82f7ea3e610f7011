package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EnumSchema describes a structured-output request whose answer is a single
// string field restricted to a closed set of values.
type EnumSchema struct {
	Name        string
	Field       string
	Description string
	Values      []string
}

// JSONSchema renders the schema as a strict JSON-schema object.
func (s EnumSchema) JSONSchema() map[string]any {
	values := make([]any, 0, len(s.Values))
	for _, value := range s.Values {
		values = append(values, value)
	}

	property := map[string]any{
		"type": "string",
		"enum": values,
	}
	if description := strings.TrimSpace(s.Description); description != "" {
		property["description"] = description
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			s.Field: property,
		},
		"required":             []any{s.Field},
		"additionalProperties": false,
	}
}

// Instructions tells a model without native structured output how to shape its answer.
func (s EnumSchema) Instructions() string {
	quoted := make([]string, 0, len(s.Values))
	for _, value := range s.Values {
		quoted = append(quoted, fmt.Sprintf("%q", value))
	}

	return fmt.Sprintf(
		"Respond with only a JSON object of the form {%q: <value>} where <value> is one of %s. Do not add any other text.",
		s.Field,
		strings.Join(quoted, ", "),
	)
}

// Validate reports whether the schema can be sent to a provider.
func (s EnumSchema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("schema name is required")
	}
	if strings.TrimSpace(s.Field) == "" {
		return errors.New("schema field is required")
	}
	if len(s.Values) == 0 {
		return errors.New("schema needs at least one value")
	}

	return nil
}

// DecodeLabel extracts the raw label from a model answer. JSON envelopes
// (optionally wrapped in a markdown code fence) are decoded by field name;
// anything else is returned trimmed so the caller can validate it.
func (s EnumSchema) DecodeLabel(raw string) (string, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return "", errors.New("model returned an empty answer")
	}

	if !strings.HasPrefix(text, "{") {
		return strings.Trim(text, "\"'` \n\t."), nil
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return "", fmt.Errorf("decode %s answer: %w", s.Name, err)
	}

	value, ok := envelope[s.Field]
	if !ok {
		return "", fmt.Errorf("%s answer has no %q field", s.Name, s.Field)
	}

	label, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s answer field %q is %T, want string", s.Name, s.Field, value)
	}

	return label, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
