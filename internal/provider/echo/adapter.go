// Package echo provides a testing provider that echoes back input messages.
// It implements the chat.Provider interface without making external API
// calls, providing deterministic responses for testing and development.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quartzlabs/turnstile/internal/chat"
	"github.com/quartzlabs/turnstile/internal/observability"
)

const (
	providerName = "echo"
	modelName    = "echo4"
)

// Provider implements the chat.Provider interface for echo testing.
type Provider struct {
	name            string
	supportedModels map[string]bool
}

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider() *Provider {
	return &Provider{
		name: providerName,
		supportedModels: map[string]bool{
			modelName: true,
		},
	}
}

// Complete sends a completion request and returns the echoed response.
func (p *Provider) Complete(ctx context.Context, req *chat.CompletionRequest) (*chat.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if !p.supportedModels[req.Model] {
		return nil, fmt.Errorf("model %s is not supported by echo provider", req.Model)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	// Build echo content from messages
	echoContent := buildEchoContent(req.Messages)

	// Count tokens (simple word-based counting)
	promptTokens := countTokens(echoContent)
	completionTokens := promptTokens // Echo returns same size

	return &chat.CompletionResponse{
		ID:       fmt.Sprintf("echo-%d", time.Now().UnixNano()),
		Model:    req.Model,
		Provider: p.name,
		Content:  echoContent,
		Usage: chat.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.supportedModels[model]
}

// SupportedModels returns a list of all models this provider supports.
func (p *Provider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(p.supportedModels))
	for model := range p.supportedModels {
		models = append(models, model)
	}
	return models
}

// buildEchoContent constructs the echo response from request messages.
func buildEchoContent(messages []chat.Message) string {
	if len(messages) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, msg := range messages {
		builder.WriteString(fmt.Sprintf("[%s]: %s\n", msg.Role, msg.Content))
	}
	return builder.String()
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
