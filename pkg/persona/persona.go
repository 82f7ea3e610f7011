// Package persona resolves the fixed system prompts used by the classifier
// and the two responders.
package persona

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"mindroute/pkg/config"
	"mindroute/pkg/conversation"
	providertypes "mindroute/pkg/provider/types"
)

type Name string

const (
	Therapist Name = "therapist"
	Logical   Name = "logical"
)

const classifierTemplate = "classifier"

//go:embed templates/*.md
var templatesFS embed.FS

// Names lists the responder personas in routing order.
func Names() []Name {
	return []Name{Therapist, Logical}
}

// Prompts is the resolved set of system prompts for one process.
type Prompts struct {
	Classifier string
	Therapist  string
	Logical    string
}

// For returns the system prompt of a responder persona.
func (p Prompts) For(name Name) (string, error) {
	switch name {
	case Therapist:
		return p.Therapist, nil
	case Logical:
		return p.Logical, nil
	default:
		return "", fmt.Errorf("unknown persona %q", name)
	}
}

// Load resolves every prompt, preferring override files from cfg over the
// embedded templates.
func Load(cfg config.PersonasConfig) (Prompts, error) {
	classifier, err := resolve(classifierTemplate, cfg.ClassifierFile)
	if err != nil {
		return Prompts{}, err
	}
	therapist, err := resolve(string(Therapist), cfg.TherapistFile)
	if err != nil {
		return Prompts{}, err
	}
	logical, err := resolve(string(Logical), cfg.LogicalFile)
	if err != nil {
		return Prompts{}, err
	}

	return Prompts{
		Classifier: classifier,
		Therapist:  therapist,
		Logical:    logical,
	}, nil
}

// Defaults returns the embedded prompts.
func Defaults() (Prompts, error) {
	return Load(config.PersonasConfig{})
}

// ClassifierSchema constrains the classifier to the two conversation categories.
func ClassifierSchema() providertypes.EnumSchema {
	categories := conversation.Categories()
	values := make([]string, 0, len(categories))
	for _, category := range categories {
		values = append(values, string(category))
	}

	return providertypes.EnumSchema{
		Name:        "message_classifier",
		Field:       "message_type",
		Description: "Classify if the message requires an emotional (therapist) or logical response.",
		Values:      values,
	}
}

func resolve(templateName string, overridePath string) (string, error) {
	if path := strings.TrimSpace(overridePath); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s prompt %s: %w", templateName, path, err)
		}

		prompt := strings.TrimSpace(string(content))
		if prompt == "" {
			return "", fmt.Errorf("%s prompt file %s is empty", templateName, path)
		}
		return prompt, nil
	}

	content, err := templatesFS.ReadFile(templatePath(templateName))
	if err != nil {
		return "", fmt.Errorf("load %s prompt template: %w", templateName, err)
	}

	prompt := strings.TrimSpace(string(content))
	if prompt == "" {
		return "", fmt.Errorf("prompt template %q is empty", templateName)
	}

	return prompt, nil
}

func templatePath(templateName string) string {
	return "templates/" + strings.TrimSpace(templateName) + ".md"
}
