package ledger

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Tier is a subscription discount level.
type Tier uint8

const (
	TierBasic Tier = iota
	TierPremium
	TierUnlimited
)

// String returns the canonical tier name.
func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierPremium:
		return "premium"
	case TierUnlimited:
		return "unlimited"
	default:
		return "unknown"
	}
}

// ParseTier parses a tier name as produced by Tier.String.
func ParseTier(s string) (Tier, bool) {
	switch s {
	case "basic":
		return TierBasic, true
	case "premium":
		return TierPremium, true
	case "unlimited":
		return TierUnlimited, true
	default:
		return TierBasic, false
	}
}

// Subscription is a single subscription token. Records are never deleted;
// they lapse when Expiry passes. Active is not maintained incrementally:
// an expired record may still carry Active=true and is filtered at read
// time instead.
type Subscription struct {
	ID     uint64
	Holder common.Address
	Tier   Tier
	Expiry time.Time
	Active bool
}

// SubscriptionRegistry owns subscription records keyed by token id, with a
// per-holder index in mint order. It carries no lock of its own: the Chain
// serializes access.
type SubscriptionRegistry struct {
	subs     map[uint64]*Subscription
	byHolder map[common.Address][]uint64
	count    uint64
	now      func() time.Time
}

// NewSubscriptionRegistry creates an empty registry using the given clock.
func NewSubscriptionRegistry(now func() time.Time) *SubscriptionRegistry {
	return &SubscriptionRegistry{
		subs:     make(map[uint64]*Subscription),
		byHolder: make(map[common.Address][]uint64),
		count:    0,
		now:      now,
	}
}

// Mint creates a new subscription for holder expiring durationDays from now
// and returns its id. Authorization is enforced by the Chain.
func (r *SubscriptionRegistry) Mint(holder common.Address, tier Tier, durationDays uint64) uint64 {
	id := r.count
	r.count++

	r.subs[id] = &Subscription{
		ID:     id,
		Holder: holder,
		Tier:   tier,
		// AddDate rather than a Duration: day counts large enough to
		// overflow int64 nanoseconds must still produce a sane expiry.
		Expiry: r.now().AddDate(0, 0, int(durationDays)),
		Active: true,
	}
	r.byHolder[holder] = append(r.byHolder[holder], id)

	return id
}

// Renew extends a subscription by additionalDays and force-reactivates it,
// even if it had lapsed.
func (r *SubscriptionRegistry) Renew(id uint64, additionalDays uint64) error {
	sub, ok := r.subs[id]
	if !ok {
		return ErrNotFound
	}

	sub.Expiry = sub.Expiry.AddDate(0, 0, int(additionalDays))
	sub.Active = true
	return nil
}

// HasActive reports whether holder has a live subscription and at what tier.
// The holder's index is scanned in mint order and the first active,
// unexpired record wins even when a later record carries a higher tier.
// When no record qualifies it returns (false, TierBasic); the boolean, not
// the tier, is authoritative.
func (r *SubscriptionRegistry) HasActive(holder common.Address) (bool, Tier) {
	now := r.now()
	for _, id := range r.byHolder[holder] {
		sub := r.subs[id]
		if sub.Holder == holder && sub.Active && sub.Expiry.After(now) {
			return true, sub.Tier
		}
	}
	return false, TierBasic
}

// Get returns a copy of the subscription record.
func (r *SubscriptionRegistry) Get(id uint64) (Subscription, error) {
	sub, ok := r.subs[id]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return *sub, nil
}

// Count returns the number of subscriptions ever minted.
func (r *SubscriptionRegistry) Count() uint64 {
	return r.count
}
