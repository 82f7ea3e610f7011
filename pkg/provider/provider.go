package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mindroute/pkg/config"
	providerfantasy "mindroute/pkg/provider/fantasy"
	provideropenai "mindroute/pkg/provider/openai"
	"mindroute/pkg/provider/opencode"
	providertypes "mindroute/pkg/provider/types"
)

const (
	ProviderOpenAI   = "openai"
	ProviderFantasy  = "fantasy"
	ProviderOpenCode = "opencode"
)

// Client is the hosted language-model boundary. Both calls are blocking and
// single-shot; no conversation history is sent beyond the two given texts.
type Client interface {
	Health(ctx context.Context) error
	Complete(ctx context.Context, systemPrompt string, userText string) (providertypes.Completion, error)
	// Classify returns the raw label chosen by the model. Callers validate it.
	Classify(ctx context.Context, systemPrompt string, userText string, schema providertypes.EnumSchema) (string, error)
}

var (
	_ Client = (*provideropenai.Client)(nil)
	_ Client = (*providerfantasy.Client)(nil)
	_ Client = (*opencode.Client)(nil)
)

func New(cfg *config.Config) (Client, error) {
	providerID := strings.ToLower(strings.TrimSpace(cfg.Model.Provider))
	if providerID == "" {
		providerID = ProviderOpenAI
	}

	slog.Default().With("component", "provider.factory").Debug("Resolving provider client", "provider", providerID)

	switch providerID {
	case ProviderOpenAI:
		return provideropenai.New(cfg)
	case ProviderFantasy:
		return providerfantasy.New(cfg)
	case ProviderOpenCode:
		return opencode.New(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerID)
	}
}
