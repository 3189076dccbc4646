package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// -- Chain access --

	// One of "solana", "flow", "ethereum" or "fake"
	Chain       string `env:"MINT_CHAIN" envDefault:"solana"`
	RPCEndpoint string `env:"MINT_RPC_ENDPOINT"`
	// Minimum commitment a mint transaction must reach to count as settled
	Commitment string `env:"MINT_COMMITMENT" envDefault:"confirmed"`

	// -- Sale program accounts --

	// Candy machine account (Solana) or drop contract address (Flow, EVM)
	CandyMachineID  string `env:"MINT_CANDY_MACHINE_ID,notEmpty"`
	ConfigAddress   string `env:"MINT_CONFIG_ADDRESS"`
	TreasuryAddress string `env:"MINT_TREASURY_ADDRESS"`
	// Sale start in unix milliseconds, replaced by the on-chain value once read
	StartDate int64 `env:"MINT_START_DATE" envDefault:"0"`

	// -- Timing --

	TxTimeout         time.Duration `env:"MINT_TX_TIMEOUT" envDefault:"30s"`
	PollInterval      time.Duration `env:"MINT_POLL_INTERVAL" envDefault:"1s"`
	CountdownTick     time.Duration `env:"MINT_COUNTDOWN_TICK" envDefault:"1s"`
	RefreshMaxElapsed time.Duration `env:"MINT_REFRESH_MAX_ELAPSED" envDefault:"10s"`

	// -- Program error codes --

	SoldOutCode           int `env:"MINT_SOLD_OUT_CODE" envDefault:"311"`
	NotStartedCode        int `env:"MINT_NOT_STARTED_CODE" envDefault:"312"`
	InsufficientFundsCode int `env:"MINT_INSUFFICIENT_FUNDS_CODE" envDefault:"309"`

	// -- Wallet --

	// Solana keypair file, Flow private key (or KMS resource id) or EVM hex key
	WalletKeypair  string `env:"MINT_WALLET_KEYPAIR"`
	WalletAddress  string `env:"MINT_WALLET_ADDRESS"`
	WalletKeyType  string `env:"MINT_WALLET_KEY_TYPE" envDefault:"local"`
	WalletKeyIndex int    `env:"MINT_WALLET_KEY_INDEX" envDefault:"0"`

	FlowGasLimit uint64 `env:"MINT_FLOW_GAS_LIMIT" envDefault:"9999"`

	// -- Host --

	Host     string `env:"MINT_HOST"`
	Port     int    `env:"MINT_PORT" envDefault:"3000"`
	LogLevel string `env:"MINT_LOG_LEVEL" envDefault:"info"`
}

type ConfigOptions struct {
	EnvFilePath string
}

// ParseConfig parses environment variables and flags to a valid Config.
func ParseConfig(opt *ConfigOptions) (*Config, error) {
	if opt != nil && opt.EnvFilePath != "" {
		// Load variables from a file to the environment of the process
		if err := godotenv.Load(opt.EnvFilePath); err != nil {
			log.Printf("Could not load environment variables from file.\n%s\nIf running inside a docker container this can be ignored.\n\n", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch chain.Kind(c.Chain) {
	case chain.KindSolana, chain.KindFlow, chain.KindEthereum, chain.KindFake:
	default:
		return fmt.Errorf("unsupported chain '%s'", c.Chain)
	}

	if _, err := chain.ParseCommitment(c.Commitment); err != nil {
		return err
	}

	if c.TxTimeout <= 0 {
		return fmt.Errorf("transaction timeout must be positive, got %s", c.TxTimeout)
	}

	if c.PollInterval <= 0 || c.CountdownTick <= 0 {
		return fmt.Errorf("poll interval and countdown tick must be positive")
	}

	return nil
}

// SaleStartTime converts the configured start date; zero when unset.
func (c *Config) SaleStartTime() time.Time {
	if c.StartDate <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(c.StartDate).UTC()
}

// CommitmentLevel returns the parsed commitment, defaulting to confirmed.
func (c *Config) CommitmentLevel() chain.Commitment {
	level, err := chain.ParseCommitment(c.Commitment)
	if err != nil {
		return chain.CommitmentConfirmed
	}
	return level
}
