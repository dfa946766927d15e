package arbitrage

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/flasharb/internal/botlog"
	"github.com/web3guy0/flasharb/internal/quote"
)

// Quoter fetches a comparable quote pair from both venues.
type Quoter interface {
	GetPair(ctx context.Context, venueA, venueB quote.Venue, path []common.Address, amountIn *big.Int) (quote.Result, quote.Result, error)
}

// GasPricer reports the current network gas price. Satisfied by
// *ethclient.Client.
type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Executor submits the on-chain arbitrage call and waits for settlement.
type Executor interface {
	ExecuteArbitrage(ctx context.Context, asset common.Address, amount, gasPrice *big.Int, gasLimit uint64) (common.Hash, error)
	WaitSettled(ctx context.Context, hash common.Hash) error
}

// Ledger is the risk gate the sequencer consults before and after trading.
type Ledger interface {
	CheckPositionSize(amount decimal.Decimal) bool
	RecordTrade(profitOrLoss decimal.Decimal) bool
}

// Journal persists opportunities and executions. Best-effort: journal errors
// never fail an iteration.
type Journal interface {
	RecordOpportunity(opp Opportunity) error
	RecordExecution(txHash string, netProfit decimal.Decimal, status, errMsg string) error
}

// Notifier pushes human-facing alerts (Telegram). Optional.
type Notifier interface {
	Notify(text string)
}

// Clock abstracts sleeping so tests can drive backoff without real time.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// SequencerConfig carries the static parameters of the loop.
type SequencerConfig struct {
	VenueA, VenueB quote.Venue
	Path           []common.Address
	TokenPair      string

	Asset      common.Address // borrowed asset, first token of the path
	LoanAmount *big.Int       // notional per attempt, wei

	FlashLoanFeeBps int64
	GasLimit        uint64

	PollInterval time.Duration // after a clean iteration
	ErrorBackoff time.Duration // after a failed one

	DryRun bool
}

// Sequencer runs the evaluate -> gate -> execute -> record loop. One
// iteration completes (including settlement waits) before the next begins;
// nothing here is concurrent.
type Sequencer struct {
	cfg    SequencerConfig
	quoter Quoter
	gas    GasPricer
	exec   Executor
	ledger Ledger
	wire   *botlog.Logger

	journal  Journal
	notifier Notifier
	clock    Clock
}

// NewSequencer creates the sequencer with its required collaborators.
func NewSequencer(cfg SequencerConfig, quoter Quoter, gas GasPricer, exec Executor, ledger Ledger, wire *botlog.Logger) *Sequencer {
	return &Sequencer{
		cfg:    cfg,
		quoter: quoter,
		gas:    gas,
		exec:   exec,
		ledger: ledger,
		wire:   wire,
		clock:  realClock{},
	}
}

// SetJournal attaches the trade journal.
func (s *Sequencer) SetJournal(j Journal) {
	s.journal = j
}

// SetNotifier attaches the alert notifier.
func (s *Sequencer) SetNotifier(n Notifier) {
	s.notifier = n
}

// Run loops until ctx is cancelled. Every steady-state error is contained in
// its iteration: logged, backed off, retried. Nothing escapes.
func (s *Sequencer) Run(ctx context.Context) {
	s.wire.Printf("Monitoring for arbitrage opportunities...")
	log.Info().
		Str("venue_a", s.cfg.VenueA.Name).
		Str("venue_b", s.cfg.VenueB.Name).
		Str("pair", s.cfg.TokenPair).
		Bool("dry_run", s.cfg.DryRun).
		Msg("Sequencer started")

	for ctx.Err() == nil {
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error().Err(err).Msg("Iteration failed")
			s.wire.Printf("Error in monitoring loop: %v", err)
			s.clock.Sleep(ctx, s.cfg.ErrorBackoff)
			continue
		}
		s.clock.Sleep(ctx, s.cfg.PollInterval)
	}

	log.Info().Msg("Sequencer stopped")
}

// runOnce performs a single Evaluating -> Gating -> Executing -> Recording
// pass. A nil return means the iteration completed (traded or skipped) and
// the loop continues at the normal cadence.
func (s *Sequencer) runOnce(ctx context.Context) error {
	// Evaluating
	qa, qb, err := s.quoter.GetPair(ctx, s.cfg.VenueA, s.cfg.VenueB, s.cfg.Path, s.cfg.LoanAmount)
	if err != nil {
		return err
	}

	gasPrice, err := s.gas.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}

	opp := Evaluate(qa, qb, s.cfg.TokenPair, s.cfg.FlashLoanFeeBps, gasPrice, s.cfg.GasLimit)

	if s.journal != nil {
		if err := s.journal.RecordOpportunity(opp); err != nil {
			log.Warn().Err(err).Msg("Failed to journal opportunity")
		}
	}

	if !opp.Profitable {
		s.wire.Printf("No profitable arbitrage opportunity found")
		log.Debug().
			Str("net_profit", opp.NetProfitETH().String()).
			Msg("Not profitable, skipping")
		return nil
	}

	s.logOpportunity(opp)

	// Gating
	notional := decimal.NewFromBigInt(opp.Amount, -18)
	if !s.ledger.CheckPositionSize(notional) {
		s.wire.Printf("Position size exceeds limit, skipping arbitrage")
		log.Warn().Str("amount", notional.String()).Msg("Position size exceeds limit")
		return nil
	}

	// A zero-amount record doubles as a budget probe: it changes nothing,
	// triggers the lazy day reset, and reports whether yesterday's losses
	// still block us.
	if !s.ledger.RecordTrade(decimal.Zero) {
		s.wire.Printf("Daily loss limit exceeded, skipping arbitrage")
		return nil
	}

	// Executing
	s.wire.Printf("Executing arbitrage...")
	if s.cfg.DryRun {
		log.Info().
			Str("net_profit", opp.NetProfitETH().String()).
			Msg("Dry run - not submitting transaction")
		return nil
	}

	execGasPrice, err := s.optimalGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price for execution: %w", err)
	}

	txHash, err := s.exec.ExecuteArbitrage(ctx, s.cfg.Asset, opp.Amount, execGasPrice, s.cfg.GasLimit)
	if err != nil {
		s.journalExecution("", opp, "failed", err)
		return fmt.Errorf("execute arbitrage: %w", err)
	}
	s.wire.Printf("Transaction sent: %s", txHash.Hex())

	if err := s.exec.WaitSettled(ctx, txHash); err != nil {
		// No realized P&L exists for a failed settlement, so nothing is
		// recorded against the loss budget.
		s.journalExecution(txHash.Hex(), opp, "failed", err)
		return fmt.Errorf("settlement: %w", err)
	}
	s.wire.Printf("Arbitrage executed successfully")

	// Recording
	net := opp.NetProfitETH()
	if !s.ledger.RecordTrade(net) {
		log.Warn().Str("net_profit", net.String()).Msg("Daily loss budget exhausted")
		s.notify(fmt.Sprintf("⚠️ Daily loss limit exceeded after trade %s", txHash.Hex()))
	}
	s.journalExecution(txHash.Hex(), opp, "confirmed", nil)
	s.notify(fmt.Sprintf("✅ Arbitrage executed: buy %s, sell %s, net %s ETH\n%s",
		opp.BuyVenue, opp.SellVenue, net.String(), txHash.Hex()))

	log.Info().
		Str("tx", txHash.Hex()).
		Str("net_profit", net.String()).
		Msg("Arbitrage executed")
	return nil
}

// logOpportunity writes the per-field opportunity dump to the wire log.
// Only profitable opportunities are dumped, so the "Net profit:" value is
// always a plain positive decimal for the scraper.
func (s *Sequencer) logOpportunity(opp Opportunity) {
	s.wire.Printf("Arbitrage opportunity found:")
	s.wire.Printf("  Buy from: %s", opp.BuyVenue)
	s.wire.Printf("  Sell to: %s", opp.SellVenue)
	s.wire.Printf("  Token pair: %s", opp.TokenPair)
	s.wire.Printf("  Expected profit: %s ETH", fmtETH(opp.GrossSpread))
	s.wire.Printf("  Flash loan fee: %s ETH", fmtETH(opp.FlashLoanFee))
	s.wire.Printf("  Gas cost: %s ETH", fmtETH(opp.GasCost))
	s.wire.Printf("  Net profit: %s ETH", fmtETH(opp.NetProfit))
}

// optimalGasPrice refetches the network gas price and marks it up 10% to
// bias toward faster inclusion.
func (s *Sequencer) optimalGasPrice(ctx context.Context) (*big.Int, error) {
	gasPrice, err := s.gas.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	marked := new(big.Int).Mul(gasPrice, big.NewInt(110))
	return marked.Div(marked, big.NewInt(100)), nil
}

func (s *Sequencer) journalExecution(txHash string, opp Opportunity, status string, execErr error) {
	if s.journal == nil {
		return
	}
	errMsg := ""
	if execErr != nil {
		errMsg = execErr.Error()
	}
	net := decimal.Zero
	if status == "confirmed" {
		net = opp.NetProfitETH()
	}
	if err := s.journal.RecordExecution(txHash, net, status, errMsg); err != nil {
		log.Warn().Err(err).Msg("Failed to journal execution")
	}
}

func (s *Sequencer) notify(text string) {
	if s.notifier != nil {
		s.notifier.Notify(text)
	}
}

func fmtETH(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -18).String()
}
