package chat

import "context"

// Provider represents any upstream LLM provider.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider identifier.
	Name() string

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool

	// SupportedModels returns all models this provider serves.
	SupportedModels(ctx context.Context) []string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// GetByModel retrieves a provider that serves the given model.
	GetByModel(ctx context.Context, model string) (Provider, error)

	// List returns all available provider names.
	List(ctx context.Context) ([]string, error)
}

// SessionStore holds per-session chat history for display. It is not the
// billing record; that lives in the chain's query log.
type SessionStore interface {
	// Append adds messages to the session's history.
	Append(ctx context.Context, sessionID string, msgs ...Message) error

	// History returns the session's messages in append order.
	History(ctx context.Context, sessionID string) ([]Message, error)

	// Clear removes the session and its history.
	Clear(ctx context.Context, sessionID string) error
}
