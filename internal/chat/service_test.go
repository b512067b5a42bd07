package chat_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/quartzlabs/turnstile/internal/chat"
	"github.com/quartzlabs/turnstile/internal/ledger"
	"github.com/quartzlabs/turnstile/internal/session"
)

var (
	admin     = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	treasury  = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	alice     = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	developer = common.HexToAddress("0x0000000000000000000000000000000000000c01")
)

// mockProvider is a hand-rolled Provider for testing.
type mockProvider struct {
	name         string
	models       map[string]bool
	completeFunc func(ctx context.Context, req *chat.CompletionRequest) (*chat.CompletionResponse, error)
	calls        int
}

func (m *mockProvider) Complete(ctx context.Context, req *chat.CompletionRequest) (*chat.CompletionResponse, error) {
	m.calls++
	if m.completeFunc != nil {
		return m.completeFunc(ctx, req)
	}
	return &chat.CompletionResponse{
		ID:       "test-id",
		Model:    req.Model,
		Provider: m.name,
		Content:  "test response",
		Usage: chat.Usage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
		FinishTime: time.Now(),
	}, nil
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) IsModelSupported(_ context.Context, model string) bool {
	return m.models[model]
}

func (m *mockProvider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(m.models))
	for model := range m.models {
		models = append(models, model)
	}
	return models
}

// mockRegistry is a hand-rolled ProviderRegistry for testing.
type mockRegistry struct {
	providers map[string]chat.Provider
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{providers: make(map[string]chat.Provider)}
}

func (m *mockRegistry) Register(_ context.Context, provider chat.Provider) error {
	m.providers[provider.Name()] = provider
	return nil
}

func (m *mockRegistry) Get(_ context.Context, providerName string) (chat.Provider, error) {
	provider, exists := m.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", providerName)
	}
	return provider, nil
}

func (m *mockRegistry) GetByModel(ctx context.Context, model string) (chat.Provider, error) {
	for _, provider := range m.providers {
		if provider.IsModelSupported(ctx, model) {
			return provider, nil
		}
	}
	return nil, fmt.Errorf("no provider found for model: %s", model)
}

func (m *mockRegistry) List(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	return names, nil
}

// nullEvents drops every event.
type nullEvents struct{}

func (nullEvents) Publish(_ context.Context, _ string, _ map[string]interface{}) {}

// acceptAllToken lets every transfer through and reports a fixed balance.
type acceptAllToken struct{}

func (acceptAllToken) Transfer(_, _ common.Address, _ *big.Int) error     { return nil }
func (acceptAllToken) TransferFrom(_, _ common.Address, _ *big.Int) error { return nil }
func (acceptAllToken) BalanceOf(_ common.Address) *big.Int                { return new(big.Int) }

func toWei(tokens int64) *big.Int {
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(tokens), unit)
}

// fixture wires a chain with one registered model, a funded user, a mock
// provider and an in-memory session store.
type fixture struct {
	chain    *ledger.Chain
	provider *mockProvider
	sessions *session.MemoryStore
	service  *chat.Service
	modelID  uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	chain := ledger.New(ledger.Params{
		Admin:              admin,
		Treasury:           treasury,
		BaseMessageCost:    big.NewInt(1_000_000_000_000_000),
		PlatformFeePercent: 10,
		ProposalThreshold:  toWei(100),
		VotingPeriod:       72 * time.Hour,
		QuorumPercent:      10,
	}, acceptAllToken{}, nullEvents{})

	ctx := context.Background()
	modelID, err := chain.RegisterModel(ctx, admin, "Coding Expert", "gpt-4o", developer, 120)
	require.NoError(t, err)
	require.NoError(t, chain.AddCredits(ctx, alice, toWei(1)))

	provider := &mockProvider{
		name:   "test-provider",
		models: map[string]bool{"gpt-4o": true},
	}
	registry := newMockRegistry()
	require.NoError(t, registry.Register(ctx, provider))

	sessions := session.NewMemoryStore()

	return &fixture{
		chain:    chain,
		provider: provider,
		sessions: sessions,
		service:  chat.NewService(chain, registry, sessions),
		modelID:  modelID,
	}
}

func TestService_Send(t *testing.T) {
	t.Run("should bill and persist a successful turn", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		reply, err := f.service.Send(ctx, alice, f.modelID, "write me a quine", "")
		require.NoError(t, err)

		require.Equal(t, "test response", reply.Content)
		require.Equal(t, "Coding Expert", reply.ModelName)
		require.Equal(t, "test-provider", reply.Provider)
		require.NotEmpty(t, reply.SessionID)
		// base 10^15 * 120 / 100
		require.Equal(t, big.NewInt(1_200_000_000_000_000), reply.Cost)

		expected := new(big.Int).Sub(toWei(1), reply.Cost)
		require.Equal(t, expected, f.chain.CreditBalance(alice))
		require.Len(t, f.chain.QueryHistory(alice), 1)

		history, err := f.sessions.History(ctx, reply.SessionID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.Equal(t, "user", history[0].Role)
		require.Equal(t, "write me a quine", history[0].Content)
		require.Equal(t, "assistant", history[1].Role)
	})

	t.Run("should keep the session id across turns", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		first, err := f.service.Send(ctx, alice, f.modelID, "hello", "")
		require.NoError(t, err)
		second, err := f.service.Send(ctx, alice, f.modelID, "again", first.SessionID)
		require.NoError(t, err)
		require.Equal(t, first.SessionID, second.SessionID)

		history, err := f.sessions.History(ctx, first.SessionID)
		require.NoError(t, err)
		require.Len(t, history, 4)
	})

	t.Run("should not call upstream when the user cannot pay", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		broke := common.HexToAddress("0x0000000000000000000000000000000000000b99")
		_, err := f.service.Send(ctx, broke, f.modelID, "hello", "")
		require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		require.Zero(t, f.provider.calls)
	})

	t.Run("should not bill when the upstream call fails", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		f.provider.completeFunc = func(_ context.Context, _ *chat.CompletionRequest) (*chat.CompletionResponse, error) {
			return nil, errors.New("upstream unavailable")
		}

		_, err := f.service.Send(ctx, alice, f.modelID, "hello", "")
		require.ErrorContains(t, err, "completion failed")
		require.Equal(t, toWei(1), f.chain.CreditBalance(alice))
		require.Empty(t, f.chain.QueryHistory(alice))
	})

	t.Run("should reject empty messages", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Send(context.Background(), alice, f.modelID, "", "")
		require.Error(t, err)
		require.Zero(t, f.provider.calls)
	})

	t.Run("should fail for unknown models", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Send(context.Background(), alice, 42, "hello", "")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("should fail for inactive models without billing", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		require.NoError(t, f.chain.SetModelActive(ctx, admin, f.modelID, false))

		_, err := f.service.Send(ctx, alice, f.modelID, "hello", "")
		require.ErrorIs(t, err, ledger.ErrModelInactive)
		require.Equal(t, toWei(1), f.chain.CreditBalance(alice))
	})

	t.Run("should replay prior history to the provider", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		var seen []chat.Message
		f.provider.completeFunc = func(_ context.Context, req *chat.CompletionRequest) (*chat.CompletionResponse, error) {
			seen = req.Messages
			return &chat.CompletionResponse{Content: "ok", Provider: "test-provider"}, nil
		}

		first, err := f.service.Send(ctx, alice, f.modelID, "one", "")
		require.NoError(t, err)
		_, err = f.service.Send(ctx, alice, f.modelID, "two", first.SessionID)
		require.NoError(t, err)

		require.Len(t, seen, 3)
		require.Equal(t, "one", seen[0].Content)
		require.Equal(t, "ok", seen[1].Content)
		require.Equal(t, "two", seen[2].Content)
	})

	t.Run("should fail when no provider serves the upstream model", func(t *testing.T) {
		f := newFixture(t)
		f.provider.models = map[string]bool{}

		_, err := f.service.Send(context.Background(), alice, f.modelID, "hello", "")
		require.ErrorContains(t, err, "provider routing failed")
		require.Equal(t, toWei(1), f.chain.CreditBalance(alice))
	})
}

func TestService_History(t *testing.T) {
	t.Run("should require a session id", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.History(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("should return empty history for unknown sessions", func(t *testing.T) {
		f := newFixture(t)

		history, err := f.service.History(context.Background(), "missing")
		require.NoError(t, err)
		require.Empty(t, history)
	})
}

func TestService_ClearSession(t *testing.T) {
	t.Run("should remove the session history", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		reply, err := f.service.Send(ctx, alice, f.modelID, "hello", "")
		require.NoError(t, err)

		require.NoError(t, f.service.ClearSession(ctx, reply.SessionID))
		history, err := f.service.History(ctx, reply.SessionID)
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("should require a session id", func(t *testing.T) {
		f := newFixture(t)

		require.Error(t, f.service.ClearSession(context.Background(), ""))
	})
}
