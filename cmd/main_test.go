package main

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/quartzlabs/turnstile/internal/config"
	"github.com/quartzlabs/turnstile/internal/ledger"
	"github.com/quartzlabs/turnstile/internal/token"
)

type nullEvents struct{}

func (nullEvents) Publish(_ context.Context, _ string, _ map[string]interface{}) {}

func devChainConfig(accounts ...string) *config.ChainConfig {
	return &config.ChainConfig{
		AdminAddress:        "0x0000000000000000000000000000000000000001",
		TreasuryAddress:     "0x0000000000000000000000000000000000000002",
		BaseMessageCost:     "1000000000000000",
		PlatformFeePercent:  10,
		ProposalThreshold:   "100000000000000000000",
		VotingPeriodSeconds: 259200,
		QuorumPercent:       10,
		DevGrantAccounts:    accounts,
		DevGrantAmount:      "1000000000000000000000",
	}
}

func TestApplyDevGrants(t *testing.T) {
	user := "0x0000000000000000000000000000000000000b01"
	userAddr := common.HexToAddress(user)

	t.Run("should make deposits work on a fresh token ledger", func(t *testing.T) {
		cfg := devChainConfig(user)
		tok := token.New()
		require.NoError(t, applyDevGrants(cfg, tok))

		params, err := cfg.Params()
		require.NoError(t, err)
		chain := ledger.New(params, tok, nullEvents{})

		deposit := big.NewInt(1_000_000_000_000_000_000)
		require.NoError(t, chain.AddCredits(context.Background(), userAddr, deposit))
		require.Equal(t, deposit, chain.CreditBalance(userAddr))
		require.Equal(t, deposit, tok.BalanceOf(params.Treasury))
	})

	t.Run("should fail deposits without a grant", func(t *testing.T) {
		cfg := devChainConfig()
		tok := token.New()
		require.NoError(t, applyDevGrants(cfg, tok))

		params, err := cfg.Params()
		require.NoError(t, err)
		chain := ledger.New(params, tok, nullEvents{})

		err = chain.AddCredits(context.Background(), userAddr, big.NewInt(1))
		require.ErrorIs(t, err, ledger.ErrTransferFailed)
		require.Zero(t, chain.CreditBalance(userAddr).Sign())
	})

	t.Run("should grant every listed account", func(t *testing.T) {
		second := "0x0000000000000000000000000000000000000b02"
		cfg := devChainConfig(user, second)
		tok := token.New()
		require.NoError(t, applyDevGrants(cfg, tok))

		grant, ok := new(big.Int).SetString(cfg.DevGrantAmount, 10)
		require.True(t, ok)
		require.Equal(t, grant, tok.BalanceOf(userAddr))
		require.Equal(t, grant, tok.BalanceOf(common.HexToAddress(second)))
		require.Equal(t, grant, tok.Allowance(userAddr, common.HexToAddress(cfg.TreasuryAddress)))
	})

	t.Run("should reject malformed grant accounts", func(t *testing.T) {
		cfg := devChainConfig("not-an-address")
		require.Error(t, applyDevGrants(cfg, token.New()))
	})

	t.Run("should reject malformed grant amounts", func(t *testing.T) {
		cfg := devChainConfig(user)
		cfg.DevGrantAmount = "lots"
		require.Error(t, applyDevGrants(cfg, token.New()))
	})
}
