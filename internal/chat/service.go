package chat

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/quartzlabs/turnstile/internal/ledger"
	"github.com/quartzlabs/turnstile/internal/observability"
)

// historyWindow bounds how many prior messages are replayed upstream.
const historyWindow = 20

// Service bridges billed chain queries to upstream AI providers. A message
// is only billed after the upstream call succeeds, so a provider failure
// never debits; conversely the response is withheld if billing fails.
type Service struct {
	chain     *ledger.Chain
	providers ProviderRegistry
	sessions  SessionStore
}

// NewService creates a chat service (DI constructor).
func NewService(chain *ledger.Chain, providers ProviderRegistry, sessions SessionStore) *Service {
	return &Service{
		chain:     chain,
		providers: providers,
		sessions:  sessions,
	}
}

// Reply is the outcome of one billed chat message.
type Reply struct {
	SessionID string
	Content   string
	Cost      *big.Int
	ModelName string
	Provider  string
	Usage     Usage
}

// Send runs one chat turn: eligibility precheck, upstream completion,
// on-chain billing with the message's keccak256 hash, then session
// bookkeeping. An empty sessionID starts a new session.
func (s *Service) Send(
	ctx context.Context,
	user common.Address,
	modelID uint64,
	message, sessionID string,
) (*Reply, error) {
	if message == "" {
		return nil, errors.New("message cannot be empty")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	model, err := s.chain.Model(modelID)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithModel(ctx, model.Name)
	logger := observability.FromContext(ctx)

	canChat, cost, err := s.chain.CheckEligibility(user, modelID)
	if err != nil {
		return nil, err
	}
	if !canChat {
		logger.Info("query rejected before upstream call",
			observability.String("cost", cost.String()))
		return nil, ledger.ErrInsufficientBalance
	}

	provider, err := s.providers.GetByModel(ctx, model.UpstreamModel)
	if err != nil {
		return nil, fmt.Errorf("provider routing failed: %w", err)
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		logger.Warn("session history unavailable, continuing without context",
			observability.Error(err))
		history = nil
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	userMsg := Message{Role: "user", Content: message, Timestamp: time.Now()}
	resp, err := provider.Complete(ctx, &CompletionRequest{
		Model:    model.UpstreamModel,
		Messages: append(history, userMsg),
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	// Bill only after the upstream call succeeded. If the balance raced
	// away since the precheck, the user gets the error, not the response.
	contentHash := crypto.Keccak256Hash([]byte(message))
	billed, err := s.chain.ProcessQuery(ctx, user, modelID, contentHash)
	if err != nil {
		return nil, err
	}

	assistantMsg := Message{Role: "assistant", Content: resp.Content, Timestamp: time.Now()}
	if err := s.sessions.Append(ctx, sessionID, userMsg, assistantMsg); err != nil {
		// History is a display concern; the billed reply still stands.
		logger.Warn("failed to persist session history", observability.Error(err))
	}

	logger.Info("chat turn completed",
		observability.String("provider", provider.Name()),
		observability.String("cost", billed.String()),
		observability.Int("tokens", resp.Usage.TotalTokens),
	)

	return &Reply{
		SessionID: sessionID,
		Content:   resp.Content,
		Cost:      billed,
		ModelName: model.Name,
		Provider:  provider.Name(),
		Usage:     resp.Usage,
	}, nil
}

// History returns the session's messages in append order.
func (s *Service) History(ctx context.Context, sessionID string) ([]Message, error) {
	if sessionID == "" {
		return nil, errors.New("session id cannot be empty")
	}
	return s.sessions.History(ctx, sessionID)
}

// ClearSession removes a session's history.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}
	return s.sessions.Clear(ctx, sessionID)
}
