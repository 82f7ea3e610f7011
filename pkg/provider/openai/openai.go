package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"mindroute/pkg/config"
	providertypes "mindroute/pkg/provider/types"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const providerName = "openai"

type responseCreator interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

type Client struct {
	client         osdk.Client
	responses      responseCreator
	requestTimeout time.Duration
	model          string
	maxTokens      int64
	temperature    float64
}

func New(cfg *config.Config) (*Client, error) {
	providerCfg := cfg.Providers.OpenAI
	apiKey := resolveAPIKey(providerCfg)
	if apiKey == "" {
		return nil, errors.New("providers.openai.api_key_env is required or OPENAI_API_KEY must be set")
	}

	model, err := normalizeModel(cfg.Model.Model)
	if err != nil {
		// An empty model falls back to the package default rather than failing.
		if strings.TrimSpace(cfg.Model.Model) != "" {
			return nil, err
		}
		model = config.DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(providerCfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if organization := strings.TrimSpace(providerCfg.Organization); organization != "" {
		opts = append(opts, option.WithOrganization(organization))
	}
	if project := strings.TrimSpace(providerCfg.Project); project != "" {
		opts = append(opts, option.WithProject(project))
	}

	requestTimeout := time.Duration(providerCfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	client := &Client{
		client:         osdk.NewClient(opts...),
		requestTimeout: requestTimeout,
		model:          model,
		maxTokens:      int64(cfg.Model.MaxTokens),
		temperature:    cfg.Model.Temperature,
	}
	client.responses = &client.client.Responses

	return client, nil
}

func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := providerLogger().With("operation", "health")
	startedAt := time.Now()
	log.Debug("provider request started")

	if _, err := c.client.Models.List(ctx); err != nil {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Debug("provider request completed", "duration_ms", time.Since(startedAt).Milliseconds())

	return nil
}

func (c *Client) Complete(ctx context.Context, systemPrompt string, userText string) (providertypes.Completion, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := providerLogger().With("operation", "complete")
	startedAt := time.Now()

	if strings.TrimSpace(userText) == "" {
		return providertypes.Completion{}, errors.New("user text is required")
	}
	log.Debug("provider request started",
		"model", c.model,
		"system_prompt_length", len(systemPrompt),
		"prompt_length", len(userText),
	)

	response, err := c.responses.New(ctx, c.completeParams(systemPrompt, userText))
	if err != nil {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return providertypes.Completion{}, fmt.Errorf("complete failed: %w", err)
	}

	text := strings.TrimSpace(response.OutputText())
	if text == "" {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", "no output text")
		return providertypes.Completion{}, errors.New("complete succeeded but returned no text")
	}
	log.Debug("provider request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "response_length", len(text))

	metadata := providertypes.Metadata{
		Provider: providerName,
		Model:    c.model,
	}
	if usage := usageFromResponse(response.Usage); !usage.IsZero() {
		metadata.Usage = &usage
	}

	return providertypes.Completion{
		Text:     text,
		Metadata: metadata,
	}, nil
}

func (c *Client) Classify(ctx context.Context, systemPrompt string, userText string, schema providertypes.EnumSchema) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := providerLogger().With("operation", "classify")
	startedAt := time.Now()

	if err := schema.Validate(); err != nil {
		return "", fmt.Errorf("invalid schema: %w", err)
	}
	log.Debug("provider request started",
		"model", c.model,
		"schema", schema.Name,
		"prompt_length", len(userText),
	)

	response, err := c.responses.New(ctx, c.classifyParams(systemPrompt, userText, schema))
	if err != nil {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("classify failed: %w", err)
	}

	label, err := schema.DecodeLabel(response.OutputText())
	if err != nil {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", err
	}
	log.Debug("provider request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "label", label)

	return label, nil
}

func (c *Client) completeParams(systemPrompt string, userText string) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{OfString: osdk.String(userText)},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		params.Instructions = osdk.String(systemPrompt)
	}
	if c.maxTokens > 0 {
		params.MaxOutputTokens = osdk.Int(c.maxTokens)
	}
	if c.temperature > 0 {
		params.Temperature = osdk.Float(c.temperature)
	}

	return params
}

func (c *Client) classifyParams(systemPrompt string, userText string, schema providertypes.EnumSchema) responses.ResponseNewParams {
	params := c.completeParams(systemPrompt, userText)

	format := &responses.ResponseFormatTextJSONSchemaConfigParam{
		Name:   schema.Name,
		Schema: schema.JSONSchema(),
		Strict: osdk.Bool(true),
	}
	if description := strings.TrimSpace(schema.Description); description != "" {
		format.Description = osdk.String(description)
	}
	params.Text = responses.ResponseTextConfigParam{
		Format: responses.ResponseFormatTextConfigUnionParam{OfJSONSchema: format},
	}

	return params
}

func usageFromResponse(usage responses.ResponseUsage) providertypes.TokenUsage {
	return providertypes.TokenUsage{
		InputTokens:     usage.InputTokens,
		OutputTokens:    usage.OutputTokens,
		TotalTokens:     usage.TotalTokens,
		ReasoningTokens: usage.OutputTokensDetails.ReasoningTokens,
		CacheReadTokens: usage.InputTokensDetails.CachedTokens,
	}
}

func providerLogger() *slog.Logger {
	return slog.Default().With("component", "provider.openai")
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.requestTimeout)
}

func resolveAPIKey(cfg config.OpenAIProviderConfig) string {
	if apiKeyEnv := strings.TrimSpace(cfg.APIKeyEnv); apiKeyEnv != "" {
		if apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv)); apiKey != "" {
			return apiKey
		}
	}

	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

func normalizeModel(model string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", errors.New("model is required")
	}

	parts := strings.SplitN(model, "/", 2)
	if len(parts) != 2 {
		return model, nil
	}

	providerID := strings.TrimSpace(parts[0])
	modelID := strings.TrimSpace(parts[1])
	if providerID == "" || modelID == "" {
		return "", errors.New("model is invalid")
	}
	if providerID != providerName {
		return "", fmt.Errorf("model provider %q is not supported by openai provider", providerID)
	}

	return modelID, nil
}
