// Flasharb - flash-loan DEX arbitrage bot
//
// The bot polls two UniswapV2-style routers for quotes on a fixed token
// pair, nets the spread against the flash-loan fee and current gas cost, and
// triggers the on-chain arbitrage contract when the trade clears the risk
// gates. Outcomes land in the activity log, which doubles as the wire format
// for the metrics exporter.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/flasharb/internal/arbitrage"
	"github.com/web3guy0/flasharb/internal/botlog"
	"github.com/web3guy0/flasharb/internal/chain"
	"github.com/web3guy0/flasharb/internal/config"
	"github.com/web3guy0/flasharb/internal/database"
	"github.com/web3guy0/flasharb/internal/metrics"
	"github.com/web3guy0/flasharb/internal/notify"
	"github.com/web3guy0/flasharb/internal/quote"
	"github.com/web3guy0/flasharb/internal/risk"
)

const version = "1.2.0"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("version", version).
		Str("pair", cfg.TokenPairLabel()).
		Bool("dry_run", cfg.DryRun).
		Msg("Flasharb starting...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Activity log (the wire contract the metrics exporter scrapes)
	wire, err := botlog.Open(cfg.LogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open activity log")
	}
	defer wire.Close()
	wire.Printf("Starting DEX arbitrage bot...")

	// Trade journal
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize journal")
	}

	// Chain client - any failure here is fatal: without the RPC endpoint and
	// the arbitrage contract there is nothing to run.
	client, err := chain.Dial(ctx, cfg.RPCURL, cfg.PrivateKey, cfg.ArbContract)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect chain client")
	}
	defer client.Close()

	aggregator, err := quote.NewAggregator(client)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build quote aggregator")
	}

	// Risk ledger
	ledger := risk.NewLedger(risk.Limits{
		MaxPositionSize:      cfg.MaxPositionSize,
		MaxDailyLoss:         cfg.MaxDailyLoss,
		SlippageToleranceBps: cfg.SlippageToleranceBps,
	})

	// Metrics exporter
	if cfg.MetricsAddr != "" {
		exporter := metrics.New(cfg.LogPath)
		go func() {
			if err := exporter.Serve(cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	// Sequencer
	loanWei := cfg.LoanAmountETH.Mul(decimal.New(1, 18)).BigInt()
	seq := arbitrage.NewSequencer(arbitrage.SequencerConfig{
		VenueA:          quote.Venue{Name: "Uniswap", Router: cfg.UniswapRouter},
		VenueB:          quote.Venue{Name: "Sushiswap", Router: cfg.SushiswapRouter},
		Path:            []common.Address{cfg.WETHAddress, cfg.DAIAddress},
		TokenPair:       cfg.TokenPairLabel(),
		Asset:           cfg.WETHAddress,
		LoanAmount:      loanWei,
		FlashLoanFeeBps: cfg.FlashLoanFeeBps,
		GasLimit:        cfg.GasLimit,
		PollInterval:    cfg.PollInterval,
		ErrorBackoff:    cfg.ErrorBackoff,
		DryRun:          cfg.DryRun,
	}, aggregator, client, client, ledger, wire)
	seq.SetJournal(db)

	// Telegram alerts (optional)
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram disabled")
		} else {
			seq.SetNotifier(notifier)
		}
	}

	log.Info().Msg("All systems online")

	// Blocks until SIGINT/SIGTERM
	seq.Run(ctx)

	log.Info().Msg("Goodbye!")
}
