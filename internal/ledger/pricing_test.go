package ledger_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quartzlabs/turnstile/internal/ledger"
)

func TestPricingEngine_Quote(t *testing.T) {
	baseCost := big.NewInt(1_000_000_000_000_000)

	model := func(multiplier uint64) *ledger.AIModel {
		return &ledger.AIModel{
			ID:             0,
			Name:           "Healthcare AI",
			UpstreamModel:  "gpt-4o",
			Developer:      developer,
			CostMultiplier: multiplier,
			Active:         true,
			TotalUsage:     0,
			TotalEarnings:  new(big.Int),
		}
	}

	t.Run("should price by tier with exact truncation", func(t *testing.T) {
		tests := []struct {
			name     string
			tier     ledger.Tier
			mint     bool
			expected *big.Int
		}{
			{
				name:     "no subscription pays the multiplied base",
				tier:     ledger.TierBasic,
				mint:     false,
				expected: big.NewInt(1_500_000_000_000_000),
			},
			{
				name:     "basic takes ten percent off",
				tier:     ledger.TierBasic,
				mint:     true,
				expected: big.NewInt(1_350_000_000_000_000),
			},
			{
				name:     "premium pays half",
				tier:     ledger.TierPremium,
				mint:     true,
				expected: big.NewInt(750_000_000_000_000),
			},
			{
				name:     "unlimited pays nothing",
				tier:     ledger.TierUnlimited,
				mint:     true,
				expected: new(big.Int),
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				reg := ledger.NewSubscriptionRegistry(newFakeClock().Now)
				if tt.mint {
					reg.Mint(alice, tt.tier, 30)
				}
				engine := ledger.NewPricingEngine(reg)

				require.Equal(t, tt.expected, engine.Quote(baseCost, model(150), alice))
			})
		}
	})

	t.Run("should truncate toward zero at every step", func(t *testing.T) {
		reg := ledger.NewSubscriptionRegistry(newFakeClock().Now)
		reg.Mint(alice, ledger.TierPremium, 30)
		engine := ledger.NewPricingEngine(reg)

		// 7 * 150 / 100 = 10 (truncated), then 10 / 2 = 5
		require.Equal(t, big.NewInt(5), engine.Quote(big.NewInt(7), model(150), alice))

		// 1 * 150 / 100 = 1, then 1 / 2 = 0: a discount can zero a cost
		require.Equal(t, new(big.Int), engine.Quote(big.NewInt(1), model(150), alice))
	})

	t.Run("should scale linearly with the multiplier", func(t *testing.T) {
		reg := ledger.NewSubscriptionRegistry(newFakeClock().Now)
		engine := ledger.NewPricingEngine(reg)

		require.Equal(t, new(big.Int), engine.Quote(baseCost, model(0), alice))
		require.Equal(t, baseCost, engine.Quote(baseCost, model(100), alice))
		require.Equal(t, new(big.Int).Mul(baseCost, big.NewInt(3)), engine.Quote(baseCost, model(300), alice))
	})

	t.Run("should ignore expired subscriptions", func(t *testing.T) {
		clock := newFakeClock()
		reg := ledger.NewSubscriptionRegistry(clock.Now)
		reg.Mint(alice, ledger.TierUnlimited, 1)
		engine := ledger.NewPricingEngine(reg)

		clock.Advance(48 * time.Hour)

		require.Equal(t, big.NewInt(1_500_000_000_000_000), engine.Quote(baseCost, model(150), alice))
	})
}
