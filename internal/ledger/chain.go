package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Event types published by mutating chain operations.
const (
	EventModelRegistered     = "model_registered"
	EventModelToggled        = "model_toggled"
	EventQueryProcessed      = "query_processed"
	EventCreditsAdded        = "credits_added"
	EventEarningsWithdrawn   = "earnings_withdrawn"
	EventCostUpdated         = "cost_updated"
	EventFeeUpdated          = "fee_updated"
	EventSubscriptionMinted  = "subscription_minted"
	EventSubscriptionRenewed = "subscription_renewed"
	EventProposalCreated     = "proposal_created"
	EventVoteCast            = "vote_cast"
	EventProposalExecuted    = "proposal_executed"
)

// QueryLogEntry is an immutable, append-only record of one billed query.
// The chain never mutates or prunes entries; retention is an external
// concern.
type QueryLogEntry struct {
	User        common.Address
	ModelID     uint64
	Cost        *big.Int
	Timestamp   time.Time
	ContentHash common.Hash
}

// Params are the chain's governance and billing parameters.
type Params struct {
	// Admin may register models, toggle them, mint subscriptions and
	// update billing parameters. Everything else is open to any caller.
	Admin common.Address

	// Treasury holds deposited funds and pays out developer earnings. Its
	// token balance is also the quorum denominator.
	Treasury common.Address

	BaseMessageCost    *big.Int
	PlatformFeePercent uint64
	ProposalThreshold  *big.Int
	VotingPeriod       time.Duration
	QuorumPercent      uint64
}

// Chain is the top-level ledger state. A single mutex serializes every
// public operation, reproducing the serialized-transaction execution of
// the host chain this accounting model comes from: no operation ever
// observes another's partial effects. Each operation validates all of its
// preconditions before the first mutation, so a failed call leaves the
// state exactly as it found it.
type Chain struct {
	mu     sync.Mutex
	params Params
	token  TokenService
	events EventPublisher
	now    func() time.Time

	subs    *SubscriptionRegistry
	credits *CreditLedger
	models  *ModelRegistry
	pricing *PricingEngine
	gov     *GovernanceLedger

	earnings     map[common.Address]*big.Int
	queryLog     map[common.Address][]QueryLogEntry
	totalQueries uint64
}

// Option configures a Chain.
type Option func(*Chain)

// WithClock overrides the chain's clock. Time-based transitions
// (subscription expiry, voting windows) compare this clock against stored
// timestamps lazily; nothing is scheduled.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// New creates a chain with empty stores.
func New(params Params, token TokenService, events EventPublisher, opts ...Option) *Chain {
	if params.BaseMessageCost == nil {
		params.BaseMessageCost = new(big.Int)
	}
	if params.ProposalThreshold == nil {
		params.ProposalThreshold = new(big.Int)
	}

	c := &Chain{
		params:   params,
		token:    token,
		events:   events,
		now:      time.Now,
		earnings: make(map[common.Address]*big.Int),
		queryLog: make(map[common.Address][]QueryLogEntry),
	}
	for _, opt := range opts {
		opt(c)
	}

	clock := func() time.Time { return c.now() }
	c.subs = NewSubscriptionRegistry(clock)
	c.credits = NewCreditLedger()
	c.models = NewModelRegistry()
	c.pricing = NewPricingEngine(c.subs)
	c.gov = NewGovernanceLedger(token, params.Treasury, params.ProposalThreshold,
		params.VotingPeriod, params.QuorumPercent, clock)

	return c
}

// Params returns a copy of the current chain parameters.
func (c *Chain) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.params
	p.BaseMessageCost = new(big.Int).Set(c.params.BaseMessageCost)
	p.ProposalThreshold = new(big.Int).Set(c.params.ProposalThreshold)
	return p
}

func (c *Chain) requireAdmin(caller common.Address) error {
	if caller != c.params.Admin {
		return ErrUnauthorized
	}
	return nil
}

// --- model catalog ---

// RegisterModel adds a model to the catalog. Admin only. The multiplier is
// accepted without bounds checks; only the admin can set it.
func (c *Chain) RegisterModel(
	ctx context.Context,
	caller common.Address,
	name, upstream string,
	developer common.Address,
	multiplier uint64,
) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAdmin(caller); err != nil {
		return 0, err
	}

	id := c.models.Register(name, upstream, developer, multiplier)
	c.events.Publish(ctx, EventModelRegistered, map[string]interface{}{
		"model_id":   id,
		"name":       name,
		"developer":  developer.Hex(),
		"multiplier": multiplier,
	})
	return id, nil
}

// SetModelActive toggles a model's availability. Admin only.
func (c *Chain) SetModelActive(ctx context.Context, caller common.Address, id uint64, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAdmin(caller); err != nil {
		return err
	}
	if err := c.models.SetActive(id, active); err != nil {
		return err
	}

	c.events.Publish(ctx, EventModelToggled, map[string]interface{}{
		"model_id": id,
		"active":   active,
	})
	return nil
}

// Model returns a copy of the catalog entry.
func (c *Chain) Model(id uint64) (AIModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.models.Get(id)
}

// Models returns the full catalog in id order.
func (c *Chain) Models() []AIModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.models.List()
}

// --- billing parameters ---

// UpdateBaseCost sets the base message cost. Admin only.
func (c *Chain) UpdateBaseCost(ctx context.Context, caller common.Address, cost *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAdmin(caller); err != nil {
		return err
	}
	if cost == nil || cost.Sign() < 0 {
		return ErrInvalidAmount
	}

	c.params.BaseMessageCost = new(big.Int).Set(cost)
	c.events.Publish(ctx, EventCostUpdated, map[string]interface{}{
		"base_message_cost": cost.String(),
	})
	return nil
}

// UpdateFeePercent sets the platform's cut of each query. Admin only.
func (c *Chain) UpdateFeePercent(ctx context.Context, caller common.Address, pct uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAdmin(caller); err != nil {
		return err
	}
	if pct > 100 {
		return ErrInvalidAmount
	}

	c.params.PlatformFeePercent = pct
	c.events.Publish(ctx, EventFeeUpdated, map[string]interface{}{
		"platform_fee_percent": pct,
	})
	return nil
}

// --- subscriptions ---

// MintSubscription issues a subscription token to holder. Admin only.
func (c *Chain) MintSubscription(
	ctx context.Context,
	caller, holder common.Address,
	tier Tier,
	durationDays uint64,
) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAdmin(caller); err != nil {
		return 0, err
	}

	id := c.subs.Mint(holder, tier, durationDays)
	c.events.Publish(ctx, EventSubscriptionMinted, map[string]interface{}{
		"subscription_id": id,
		"holder":          holder.Hex(),
		"tier":            tier.String(),
		"duration_days":   durationDays,
	})
	return id, nil
}

// RenewSubscription extends a subscription and reactivates it if lapsed.
// Open to any caller.
func (c *Chain) RenewSubscription(ctx context.Context, id uint64, additionalDays uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.subs.Renew(id, additionalDays); err != nil {
		return err
	}

	c.events.Publish(ctx, EventSubscriptionRenewed, map[string]interface{}{
		"subscription_id": id,
		"additional_days": additionalDays,
	})
	return nil
}

// HasActiveSubscription reports whether holder has a live subscription and
// at what tier. The tier in a false result is a sentinel, not a grant.
func (c *Chain) HasActiveSubscription(holder common.Address) (bool, Tier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.HasActive(holder)
}

// Subscription returns a copy of a subscription record.
func (c *Chain) Subscription(id uint64) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.Get(id)
}

// --- credits ---

// AddCredits deposits amount into the user's credit balance. The token
// transfer into the treasury must succeed before the balance is credited;
// a failed transfer never increments the ledger.
func (c *Chain) AddCredits(ctx context.Context, user common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	// External interaction first, outside the chain lock: the token
	// service may call back into the chain.
	if err := c.token.TransferFrom(user, c.params.Treasury, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	c.mu.Lock()
	c.credits.Credit(user, amount)
	c.mu.Unlock()

	c.events.Publish(ctx, EventCreditsAdded, map[string]interface{}{
		"user":   user.Hex(),
		"amount": amount.String(),
	})
	return nil
}

// CreditBalance returns the user's current credit balance.
func (c *Chain) CreditBalance(user common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credits.Balance(user)
}

// --- billing ---

// QuoteCost prices one message on the given model for user without any
// side effect.
func (c *Chain) QuoteCost(user common.Address, modelID uint64) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	model, err := c.models.get(modelID)
	if err != nil {
		return nil, err
	}
	return c.pricing.Quote(c.params.BaseMessageCost, model, user), nil
}

// CheckEligibility reports whether user can afford one message on the
// model right now, along with the quoted cost.
func (c *Chain) CheckEligibility(user common.Address, modelID uint64) (bool, *big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	model, err := c.models.get(modelID)
	if err != nil {
		return false, nil, err
	}
	if !model.Active {
		return false, nil, ErrModelInactive
	}

	cost := c.pricing.Quote(c.params.BaseMessageCost, model, user)
	return c.credits.CanCover(user, cost), cost, nil
}

// ProcessQuery bills user for one message on the model and returns the
// charged cost. The debit, revenue split, usage counters, query log append
// and query counter form one atomic unit: every precondition is checked
// before the first mutation, so a failure leaves no partial effect.
func (c *Chain) ProcessQuery(
	ctx context.Context,
	user common.Address,
	modelID uint64,
	contentHash common.Hash,
) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	model, err := c.models.get(modelID)
	if err != nil {
		return nil, err
	}
	if !model.Active {
		return nil, ErrModelInactive
	}

	cost := c.pricing.Quote(c.params.BaseMessageCost, model, user)
	if !c.credits.CanCover(user, cost) {
		return nil, ErrInsufficientBalance
	}

	// Preconditions hold; mutate.
	if err := c.credits.Debit(user, cost); err != nil {
		return nil, err
	}

	platformFee := new(big.Int).Mul(cost, new(big.Int).SetUint64(c.params.PlatformFeePercent))
	platformFee.Quo(platformFee, big.NewInt(100))
	developerPayment := new(big.Int).Sub(cost, platformFee)

	if err := c.models.RecordUsage(modelID, developerPayment); err != nil {
		return nil, err
	}
	c.creditEarnings(model.Developer, developerPayment)

	entry := QueryLogEntry{
		User:        user,
		ModelID:     modelID,
		Cost:        new(big.Int).Set(cost),
		Timestamp:   c.now(),
		ContentHash: contentHash,
	}
	c.queryLog[user] = append(c.queryLog[user], entry)
	c.totalQueries++

	c.events.Publish(ctx, EventQueryProcessed, map[string]interface{}{
		"user":         user.Hex(),
		"model_id":     modelID,
		"cost":         cost.String(),
		"platform_fee": platformFee.String(),
		"developer":    model.Developer.Hex(),
		"content_hash": contentHash.Hex(),
	})

	return cost, nil
}

func (c *Chain) creditEarnings(developer common.Address, amount *big.Int) {
	b, ok := c.earnings[developer]
	if !ok {
		b = new(big.Int)
		c.earnings[developer] = b
	}
	b.Add(b, amount)
}

// Earnings returns the developer's withdrawable balance.
func (c *Chain) Earnings(developer common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.earnings[developer]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// WithdrawEarnings pays out the developer's accrued earnings from the
// treasury and returns the amount. The balance is zeroed before the
// external payout so a token service that re-enters this method cannot
// withdraw twice; it is restored only if the transfer itself fails.
func (c *Chain) WithdrawEarnings(ctx context.Context, developer common.Address) (*big.Int, error) {
	c.mu.Lock()
	balance, ok := c.earnings[developer]
	if !ok || balance.Sign() == 0 {
		c.mu.Unlock()
		return nil, ErrNothingToWithdraw
	}
	amount := new(big.Int).Set(balance)
	balance.SetInt64(0)
	c.mu.Unlock()

	if err := c.token.Transfer(c.params.Treasury, developer, amount); err != nil {
		c.mu.Lock()
		c.earnings[developer].Add(c.earnings[developer], amount)
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	c.events.Publish(ctx, EventEarningsWithdrawn, map[string]interface{}{
		"developer": developer.Hex(),
		"amount":    amount.String(),
	})
	return amount, nil
}

// QueryHistory returns the user's billed queries in append order.
func (c *Chain) QueryHistory(user common.Address) []QueryLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.queryLog[user]
	out := make([]QueryLogEntry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].Cost = new(big.Int).Set(e.Cost)
	}
	return out
}

// TotalQueries returns the global billed-query counter.
func (c *Chain) TotalQueries() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalQueries
}

// --- governance ---

// CreateProposal opens a proposal; voting starts immediately.
func (c *Chain) CreateProposal(
	ctx context.Context,
	proposer common.Address,
	ptype ProposalType,
	title, description string,
) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.gov.CreateProposal(proposer, ptype, title, description)
	if err != nil {
		return 0, err
	}

	c.events.Publish(ctx, EventProposalCreated, map[string]interface{}{
		"proposal_id": id,
		"proposer":    proposer.Hex(),
		"title":       title,
	})
	return id, nil
}

// CastVote records a token-weighted vote. Weight is the voter's token
// balance at vote time; it is not snapshotted at proposal creation.
func (c *Chain) CastVote(ctx context.Context, voter common.Address, proposalID uint64, choice VoteChoice) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.gov.CastVote(proposalID, voter, choice); err != nil {
		return err
	}

	c.events.Publish(ctx, EventVoteCast, map[string]interface{}{
		"proposal_id": proposalID,
		"voter":       voter.Hex(),
		"choice":      choice.String(),
	})
	return nil
}

// ExecuteProposal records a closed proposal's outcome and returns whether
// it passed. Execution has no further side effect.
func (c *Chain) ExecuteProposal(ctx context.Context, proposalID uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	passed, err := c.gov.Execute(proposalID)
	if err != nil {
		return false, err
	}

	c.events.Publish(ctx, EventProposalExecuted, map[string]interface{}{
		"proposal_id": proposalID,
		"passed":      passed,
	})
	return passed, nil
}

// Proposal returns a copy of the proposal record.
func (c *Chain) Proposal(id uint64) (Proposal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gov.Proposal(id)
}

// VoteOf returns the recorded choice for voter on a proposal and whether
// the voter has voted at all.
func (c *Chain) VoteOf(id uint64, voter common.Address) (VoteChoice, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gov.VoteOf(id, voter)
}

// Proposals returns all proposals in creation order.
func (c *Chain) Proposals() []Proposal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gov.List()
}

// ProposalCount returns the number of proposals ever created.
func (c *Chain) ProposalCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gov.Count()
}
