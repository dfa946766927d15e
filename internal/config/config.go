package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the bot
type Config struct {
	// Chain
	RPCURL      string
	PrivateKey  string
	ArbContract common.Address

	// Venues (UniswapV2-style routers)
	UniswapRouter   common.Address
	SushiswapRouter common.Address

	// Token path
	WETHAddress common.Address
	DAIAddress  common.Address

	// Trade sizing
	LoanAmountETH decimal.Decimal // notional borrowed per attempt

	// Risk limits
	MaxPositionSize      decimal.Decimal // ETH
	MaxDailyLoss         decimal.Decimal // ETH
	SlippageToleranceBps int
	FlashLoanFeeBps      int64

	// Loop cadence
	PollInterval time.Duration // sleep after a clean iteration
	ErrorBackoff time.Duration // sleep after a failed iteration

	// Execution
	GasLimit uint64

	// Mode
	DryRun bool
	Debug  bool

	// Observability
	LogPath      string
	MetricsAddr  string
	DatabasePath string

	// Telegram (optional)
	TelegramToken  string
	TelegramChatID int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		RPCURL:     os.Getenv("RPC_URL"),
		PrivateKey: os.Getenv("PRIVATE_KEY"),

		UniswapRouter:   getEnvAddress("UNISWAP_ROUTER", "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		SushiswapRouter: getEnvAddress("SUSHISWAP_ROUTER", "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F"),
		WETHAddress:     getEnvAddress("WETH_ADDRESS", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		DAIAddress:      getEnvAddress("DAI_ADDRESS", "0x6B175474E89094C44Da98b954EedeAC495271d0F"),

		LoanAmountETH: getEnvDecimal("LOAN_AMOUNT_ETH", decimal.NewFromInt(10)),

		MaxPositionSize:      getEnvDecimal("MAX_POSITION_SIZE", decimal.NewFromInt(5)),
		MaxDailyLoss:         getEnvDecimal("MAX_DAILY_LOSS", decimal.NewFromInt(1)),
		SlippageToleranceBps: getEnvInt("SLIPPAGE_TOLERANCE_BPS", 50),
		FlashLoanFeeBps:      int64(getEnvInt("FLASH_LOAN_FEE_BPS", 9)),

		PollInterval: getEnvDuration("POLL_INTERVAL", 15*time.Second),
		ErrorBackoff: getEnvDuration("ERROR_BACKOFF", 30*time.Second),

		GasLimit: uint64(getEnvInt("GAS_LIMIT", 500000)),

		DryRun: getEnvBool("DRY_RUN", false),
		Debug:  getEnvBool("DEBUG", false),

		LogPath:      getEnv("LOG_PATH", "logs/bot.log"),
		MetricsAddr:  getEnv("METRICS_ADDR", ":8080"),
		DatabasePath: getEnv("DATABASE_PATH", "data/flasharb.db"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if addr := os.Getenv("ARB_CONTRACT_ADDRESS"); addr != "" {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid ARB_CONTRACT_ADDRESS: %s", addr)
		}
		cfg.ArbContract = common.HexToAddress(addr)
	}

	// Parse chat ID
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	// Validate required fields
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL is required")
	}
	if !cfg.DryRun {
		if cfg.PrivateKey == "" {
			return nil, fmt.Errorf("PRIVATE_KEY is required for live trading (set DRY_RUN=true to run without it)")
		}
		if cfg.ArbContract == (common.Address{}) {
			return nil, fmt.Errorf("ARB_CONTRACT_ADDRESS is required for live trading")
		}
	}

	return cfg, nil
}

// TokenPairLabel returns the label used in opportunity logs, e.g. "WETH-DAI".
func (c *Config) TokenPairLabel() string {
	return "WETH-DAI"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAddress(key, defaultValue string) common.Address {
	if value := os.Getenv(key); value != "" && common.IsHexAddress(value) {
		return common.HexToAddress(value)
	}
	return common.HexToAddress(defaultValue)
}
