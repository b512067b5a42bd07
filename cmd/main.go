package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"github.com/quartzlabs/turnstile/internal/chat"
	"github.com/quartzlabs/turnstile/internal/config"
	"github.com/quartzlabs/turnstile/internal/http"
	"github.com/quartzlabs/turnstile/internal/http/middleware"
	"github.com/quartzlabs/turnstile/internal/ledger"
	"github.com/quartzlabs/turnstile/internal/observability"
	"github.com/quartzlabs/turnstile/internal/provider/echo"
	"github.com/quartzlabs/turnstile/internal/provider/openai"
	"github.com/quartzlabs/turnstile/internal/provider/registry"
	"github.com/quartzlabs/turnstile/internal/session"
	"github.com/quartzlabs/turnstile/internal/token"
)

// ErrProviderNotConfigured indicates that a provider is not configured and should be skipped.
var ErrProviderNotConfigured = errors.New("provider not configured")

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(observability.NewEventBus); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Token ledger backing credits and governance weight
	if err := container.Provide(token.New); err != nil {
		log.Fatalf("Failed to provide token ledger: %v", err)
	}

	// Chain ledger
	if err := container.Provide(func(
		chainCfg *config.ChainConfig,
		tok *token.Ledger,
		bus *observability.EventBus,
	) (*ledger.Chain, error) {
		params, err := chainCfg.Params()
		if err != nil {
			return nil, fmt.Errorf("invalid chain config: %w", err)
		}
		return ledger.New(params, tok, bus), nil
	}); err != nil {
		log.Fatalf("Failed to provide chain: %v", err)
	}

	// Development token grants so deposits work without an external chain
	if err := container.Invoke(func(chainCfg *config.ChainConfig, tok *token.Ledger) error {
		return applyDevGrants(chainCfg, tok)
	}); err != nil {
		log.Fatalf("Failed to apply dev token grants: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() chat.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// OpenAI Provider
	if err := container.Provide(func(cfg *openai.Config) (*openai.Provider, error) {
		if cfg.APIKey == "" {
			return nil, ErrProviderNotConfigured
		}
		return openai.NewProvider(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI provider: %v", err)
	}

	// Echo provider is always available so the backend works without
	// upstream credentials.
	if err := container.Invoke(func(reg chat.ProviderRegistry) error {
		return reg.Register(context.Background(), echo.NewProvider())
	}); err != nil {
		log.Fatalf("Failed to register echo provider: %v", err)
	}

	// Register OpenAI if configured (invoked for side effects)
	if err := container.Invoke(func(
		reg chat.ProviderRegistry,
		openaiProvider *openai.Provider,
	) error {
		return reg.Register(context.Background(), openaiProvider)
	}); err != nil {
		// Ignore ErrProviderNotConfigured as it's expected for optional providers
		if !errors.Is(err, ErrProviderNotConfigured) {
			log.Fatalf("Failed to register providers: %v", err)
		}
	}

	// Session store: redis when configured, in-memory otherwise.
	if err := container.Provide(func(cfg *config.RedisConfig) chat.SessionStore {
		if cfg.Addr == "" {
			return session.NewMemoryStore()
		}
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Addr,
			DB:   cfg.DB,
		})
		return session.NewRedisStore(client, cfg.SessionTTL())
	}); err != nil {
		log.Fatalf("Failed to provide session store: %v", err)
	}

	// Chat bridge
	if err := container.Provide(chat.NewService); err != nil {
		log.Fatalf("Failed to provide chat service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(tok *token.Ledger) http.TokenInfo {
		return tok
	}); err != nil {
		log.Fatalf("Failed to provide token info: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	// Seed the model catalog.
	if err := container.Invoke(func(cfg *config.Config, chain *ledger.Chain) error {
		return seedModels(context.Background(), cfg, chain)
	}); err != nil {
		log.Fatalf("Failed to seed model catalog: %v", err)
	}

	return container
}

// applyDevGrants mints the configured development balances and approves
// the treasury to pull deposits from each granted account. Without a
// grant a fresh token ledger holds no balances and no allowances, so no
// deposit could ever succeed.
func applyDevGrants(cfg *config.ChainConfig, tok *token.Ledger) error {
	accounts, amount, err := cfg.DevGrants()
	if err != nil {
		return err
	}

	treasury := common.HexToAddress(cfg.TreasuryAddress)
	for _, account := range accounts {
		if err := tok.Mint(account, amount); err != nil {
			return fmt.Errorf("failed to mint dev grant for %s: %w", account.Hex(), err)
		}
		if err := tok.Approve(account, treasury, amount); err != nil {
			return fmt.Errorf("failed to approve treasury for %s: %w", account.Hex(), err)
		}
	}
	return nil
}

type seedModel struct {
	name       string
	upstream   string
	multiplier uint64
}

// seedModels installs the default model catalog at startup. Upstream
// models point at OpenAI when a key is configured and at the echo
// provider otherwise.
func seedModels(ctx context.Context, cfg *config.Config, chain *ledger.Chain) error {
	params, err := cfg.Chain.Params()
	if err != nil {
		return err
	}

	upstreams := []string{"gpt-4o", "gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo"}
	if cfg.OpenAI.APIKey == "" {
		upstreams = []string{"echo4", "echo4", "echo4", "echo4"}
	}

	seeds := []seedModel{
		{name: "GPT-5 Standard", upstream: upstreams[0], multiplier: 100},
		{name: "Healthcare AI", upstream: upstreams[1], multiplier: 150},
		{name: "Coding Expert", upstream: upstreams[2], multiplier: 120},
		{name: "Emotional Support AI", upstream: upstreams[3], multiplier: 110},
	}

	for _, s := range seeds {
		if _, err := chain.RegisterModel(ctx, params.Admin, s.name, s.upstream, params.Admin, s.multiplier); err != nil {
			return fmt.Errorf("failed to seed model %s: %w", s.name, err)
		}
	}
	return nil
}
