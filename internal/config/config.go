package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/quartzlabs/turnstile/internal/ledger"
	"github.com/quartzlabs/turnstile/internal/provider/openai"
)

// Config represents the platform configuration.
type Config struct {
	Server ServerConfig
	CORS   CORSConfig
	OpenAI openai.Config
	Redis  RedisConfig
	Chain  ChainConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"3001"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"60"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// RedisConfig contains session-store settings. An empty Addr selects the
// in-memory store.
type RedisConfig struct {
	Addr              string `env:"REDIS_ADDR"`
	DB                int    `env:"REDIS_DB"          envDefault:"0"`
	SessionTTLSeconds int    `env:"SESSION_TTL"       envDefault:"86400"`
}

// SessionTTL returns the session expiry as a duration.
func (c *RedisConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// ChainConfig contains the ledger's billing and governance parameters.
// Amounts are decimal strings in smallest units (18 decimals).
type ChainConfig struct {
	AdminAddress        string `env:"CHAIN_ADMIN_ADDRESS"       envDefault:"0x0000000000000000000000000000000000000001"`
	TreasuryAddress     string `env:"CHAIN_TREASURY_ADDRESS"    envDefault:"0x0000000000000000000000000000000000000002"`
	BaseMessageCost     string `env:"CHAIN_BASE_MESSAGE_COST"   envDefault:"1000000000000000"`
	PlatformFeePercent  uint64 `env:"CHAIN_PLATFORM_FEE_PCT"    envDefault:"10"`
	ProposalThreshold   string `env:"CHAIN_PROPOSAL_THRESHOLD"  envDefault:"100000000000000000000"`
	VotingPeriodSeconds int64  `env:"CHAIN_VOTING_PERIOD"       envDefault:"259200"`
	QuorumPercent       uint64 `env:"CHAIN_QUORUM_PCT"          envDefault:"10"`

	// Development token grants: every listed account is minted the grant
	// amount at startup and the treasury is approved to pull deposits
	// from it. Empty means no grants.
	DevGrantAccounts []string `env:"CHAIN_DEV_GRANT_ACCOUNTS" envSeparator:","`
	DevGrantAmount   string   `env:"CHAIN_DEV_GRANT_AMOUNT"   envDefault:"1000000000000000000000"`
}

// DevGrants parses the development grant configuration into accounts and
// the per-account amount in smallest units.
func (c *ChainConfig) DevGrants() ([]common.Address, *big.Int, error) {
	if len(c.DevGrantAccounts) == 0 {
		return nil, nil, nil
	}

	amount, ok := new(big.Int).SetString(c.DevGrantAmount, 10)
	if !ok || amount.Sign() < 0 {
		return nil, nil, fmt.Errorf("invalid dev grant amount: %s", c.DevGrantAmount)
	}

	accounts := make([]common.Address, 0, len(c.DevGrantAccounts))
	for _, s := range c.DevGrantAccounts {
		if !common.IsHexAddress(s) {
			return nil, nil, fmt.Errorf("invalid dev grant account: %s", s)
		}
		accounts = append(accounts, common.HexToAddress(s))
	}
	return accounts, amount, nil
}

// Params parses the chain configuration into ledger parameters.
func (c *ChainConfig) Params() (ledger.Params, error) {
	if !common.IsHexAddress(c.AdminAddress) {
		return ledger.Params{}, fmt.Errorf("invalid admin address: %s", c.AdminAddress)
	}
	if !common.IsHexAddress(c.TreasuryAddress) {
		return ledger.Params{}, fmt.Errorf("invalid treasury address: %s", c.TreasuryAddress)
	}

	baseCost, ok := new(big.Int).SetString(c.BaseMessageCost, 10)
	if !ok || baseCost.Sign() < 0 {
		return ledger.Params{}, fmt.Errorf("invalid base message cost: %s", c.BaseMessageCost)
	}

	threshold, ok := new(big.Int).SetString(c.ProposalThreshold, 10)
	if !ok || threshold.Sign() < 0 {
		return ledger.Params{}, fmt.Errorf("invalid proposal threshold: %s", c.ProposalThreshold)
	}

	if c.PlatformFeePercent > 100 || c.QuorumPercent > 100 {
		return ledger.Params{}, fmt.Errorf("percentages must be within [0,100]")
	}

	return ledger.Params{
		Admin:              common.HexToAddress(c.AdminAddress),
		Treasury:           common.HexToAddress(c.TreasuryAddress),
		BaseMessageCost:    baseCost,
		PlatformFeePercent: c.PlatformFeePercent,
		ProposalThreshold:  threshold,
		VotingPeriod:       time.Duration(c.VotingPeriodSeconds) * time.Second,
		QuorumPercent:      c.QuorumPercent,
	}, nil
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*openai.Config
	*RedisConfig
	*ChainConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.OpenAI,
		&cfg.Redis,
		&cfg.Chain,
	}
}
