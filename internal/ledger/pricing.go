package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Per-tier discount constants, all integer percentages.
const (
	multiplierScale   = 100
	premiumDivisor    = 2
	basicDiscountPct  = 90
	basicDiscountBase = 100
)

// PricingEngine derives the credit cost of one message as a pure function
// of the model's multiplier and the user's subscription tier. Every step
// multiplies before dividing and truncates, so results are bit-exact
// across reimplementations.
type PricingEngine struct {
	subs *SubscriptionRegistry
}

// NewPricingEngine creates a pricing engine backed by the given
// subscription registry.
func NewPricingEngine(subs *SubscriptionRegistry) *PricingEngine {
	return &PricingEngine{subs: subs}
}

// Quote returns the cost of one message on the given model for user.
//
//	base = baseCost * multiplier / 100
//	no subscription -> base
//	unlimited       -> 0
//	premium         -> base / 2
//	basic           -> base * 90 / 100
func (p *PricingEngine) Quote(baseCost *big.Int, model *AIModel, user common.Address) *big.Int {
	base := new(big.Int).Mul(baseCost, new(big.Int).SetUint64(model.CostMultiplier))
	base.Quo(base, big.NewInt(multiplierScale))

	active, tier := p.subs.HasActive(user)
	if !active {
		return base
	}

	switch tier {
	case TierUnlimited:
		return new(big.Int)
	case TierPremium:
		return base.Quo(base, big.NewInt(premiumDivisor))
	case TierBasic:
		base.Mul(base, big.NewInt(basicDiscountPct))
		return base.Quo(base, big.NewInt(basicDiscountBase))
	default:
		return base
	}
}
