package config_test

import (
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/quartzlabs/turnstile/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify defaults
		require.Equal(t, 3001, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 60, cfg.Server.WriteTimeout)
		require.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
		require.Equal(t, 60, cfg.OpenAI.Timeout)
		require.Equal(t, 3, cfg.OpenAI.MaxRetries)
		require.Empty(t, cfg.OpenAI.APIKey)
		require.Empty(t, cfg.Redis.Addr)
		require.Equal(t, 24*time.Hour, cfg.Redis.SessionTTL())

		require.Equal(t, "1000000000000000", cfg.Chain.BaseMessageCost)
		require.Equal(t, uint64(10), cfg.Chain.PlatformFeePercent)
		require.Equal(t, uint64(10), cfg.Chain.QuorumPercent)
		require.Empty(t, cfg.Chain.DevGrantAccounts)
		require.Equal(t, "1000000000000000000000", cfg.Chain.DevGrantAmount)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("OPENAI_API_KEY", "sk-test-key")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("SESSION_TTL", "3600")
		t.Setenv("CHAIN_BASE_MESSAGE_COST", "2000000000000000")
		t.Setenv("CHAIN_PLATFORM_FEE_PCT", "20")

		cfg := config.Load()

		require.NotNil(t, cfg)

		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, "sk-test-key", cfg.OpenAI.APIKey)
		require.Equal(t, "localhost:6379", cfg.Redis.Addr)
		require.Equal(t, time.Hour, cfg.Redis.SessionTTL())
		require.Equal(t, "2000000000000000", cfg.Chain.BaseMessageCost)
		require.Equal(t, uint64(20), cfg.Chain.PlatformFeePercent)
	})
}

func TestChainConfig_Params(t *testing.T) {
	t.Run("should parse the default chain parameters", func(t *testing.T) {
		os.Clearenv()
		cfg := config.Load()

		params, err := cfg.Chain.Params()
		require.NoError(t, err)

		require.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000001"), params.Admin)
		require.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000002"), params.Treasury)
		require.Equal(t, big.NewInt(1_000_000_000_000_000), params.BaseMessageCost)
		require.Equal(t, uint64(10), params.PlatformFeePercent)
		require.Equal(t, 72*time.Hour, params.VotingPeriod)

		threshold, ok := new(big.Int).SetString("100000000000000000000", 10)
		require.True(t, ok)
		require.Equal(t, threshold, params.ProposalThreshold)
	})

	t.Run("should reject malformed addresses", func(t *testing.T) {
		cfg := config.ChainConfig{
			AdminAddress:    "not-an-address",
			TreasuryAddress: "0x0000000000000000000000000000000000000002",
			BaseMessageCost: "1",
		}

		_, err := cfg.Params()
		require.Error(t, err)
	})

	t.Run("should reject malformed amounts", func(t *testing.T) {
		cfg := config.ChainConfig{
			AdminAddress:      "0x0000000000000000000000000000000000000001",
			TreasuryAddress:   "0x0000000000000000000000000000000000000002",
			BaseMessageCost:   "1.5",
			ProposalThreshold: "100",
		}

		_, err := cfg.Params()
		require.Error(t, err)
	})

	t.Run("should parse dev grant accounts", func(t *testing.T) {
		t.Setenv("CHAIN_DEV_GRANT_ACCOUNTS", "0x0000000000000000000000000000000000000b01,0x0000000000000000000000000000000000000b02")

		cfg := config.Load()

		accounts, amount, err := cfg.Chain.DevGrants()
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		require.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000b01"), accounts[0])

		expected, ok := new(big.Int).SetString("1000000000000000000000", 10)
		require.True(t, ok)
		require.Equal(t, expected, amount)
	})

	t.Run("should return no grants when unconfigured", func(t *testing.T) {
		os.Clearenv()
		cfg := config.Load()

		accounts, amount, err := cfg.Chain.DevGrants()
		require.NoError(t, err)
		require.Empty(t, accounts)
		require.Nil(t, amount)
	})

	t.Run("should reject percentages above 100", func(t *testing.T) {
		cfg := config.ChainConfig{
			AdminAddress:       "0x0000000000000000000000000000000000000001",
			TreasuryAddress:    "0x0000000000000000000000000000000000000002",
			BaseMessageCost:    "1",
			ProposalThreshold:  "1",
			PlatformFeePercent: 101,
		}

		_, err := cfg.Params()
		require.Error(t, err)
	})
}
