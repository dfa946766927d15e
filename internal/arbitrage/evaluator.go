// Package arbitrage contains the decision core of the bot: turning a pair of
// router quotes into a go/no-go opportunity, and the sequencer loop that
// gates, executes and records trades.
package arbitrage

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/flasharb/internal/quote"
)

// Opportunity is the evaluated result of one quote comparison. All amounts
// are wei. Built fresh every loop iteration and never shared across them.
type Opportunity struct {
	BuyVenue  string
	SellVenue string
	TokenPair string

	Amount       *big.Int // notional input, wei
	GrossSpread  *big.Int // |outA - outB|, always >= 0
	FlashLoanFee *big.Int // floor(amount * feeBps / 10000)
	GasCost      *big.Int // gasPrice * estimatedGasUnits
	NetProfit    *big.Int // spread - fee - gas, may be negative

	Profitable bool // NetProfit strictly > 0
}

// NetProfitETH converts the net profit to whole-ETH units for risk
// accounting and the wire log.
func (o Opportunity) NetProfitETH() decimal.Decimal {
	return decimal.NewFromBigInt(o.NetProfit, -18)
}

// Evaluate compares two quotes taken for the same input amount and path and
// derives the trade direction and net profit.
//
// The venue with the strictly larger output is the sell venue (tokens fetch
// more there); the other is the buy venue. Equal outputs mean zero spread, so
// the assignment is arbitrary and the record is simply unprofitable.
//
// The flash-loan fee floors rather than rounds: big.Int division truncates,
// which never overstates the deduction. Net profit of exactly zero is NOT
// profitable - it would not cover the opportunity cost of capital.
func Evaluate(a, b quote.Result, tokenPair string, feeRateBps int64, gasPrice *big.Int, estimatedGasUnits uint64) Opportunity {
	opp := Opportunity{
		TokenPair: tokenPair,
		Amount:    new(big.Int).Set(a.AmountIn),
	}

	if a.AmountOut.Cmp(b.AmountOut) > 0 {
		// a pays more: buy on b, sell on a
		opp.BuyVenue = b.Venue
		opp.SellVenue = a.Venue
		opp.GrossSpread = new(big.Int).Sub(a.AmountOut, b.AmountOut)
	} else {
		opp.BuyVenue = a.Venue
		opp.SellVenue = b.Venue
		opp.GrossSpread = new(big.Int).Sub(b.AmountOut, a.AmountOut)
	}

	fee := new(big.Int).Mul(opp.Amount, big.NewInt(feeRateBps))
	opp.FlashLoanFee = fee.Div(fee, big.NewInt(10000))

	opp.GasCost = new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(estimatedGasUnits))

	opp.NetProfit = new(big.Int).Sub(opp.GrossSpread, opp.FlashLoanFee)
	opp.NetProfit.Sub(opp.NetProfit, opp.GasCost)

	opp.Profitable = opp.NetProfit.Sign() > 0

	return opp
}
