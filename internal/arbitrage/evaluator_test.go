package arbitrage

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/web3guy0/flasharb/internal/quote"
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func quoteOf(venue string, in, out *big.Int) quote.Result {
	return quote.Result{Venue: venue, AmountIn: in, AmountOut: out}
}

func TestEvaluateDirection(t *testing.T) {
	tests := []struct {
		name       string
		outA       *big.Int
		outB       *big.Int
		wantBuy    string
		wantSell   string
		wantSpread *big.Int
	}{
		{"A pays more", eth(105), eth(100), "Sushiswap", "Uniswap", eth(5)},
		{"B pays more", eth(100), eth(105), "Uniswap", "Sushiswap", eth(5)},
		{"equal outputs", eth(100), eth(100), "Uniswap", "Sushiswap", big.NewInt(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp := Evaluate(
				quoteOf("Uniswap", eth(10), tt.outA),
				quoteOf("Sushiswap", eth(10), tt.outB),
				"WETH-DAI", 9, big.NewInt(0), 0,
			)
			assert.Equal(t, tt.wantBuy, opp.BuyVenue)
			assert.Equal(t, tt.wantSell, opp.SellVenue)
			assert.Equal(t, 0, opp.GrossSpread.Cmp(tt.wantSpread))
			assert.True(t, opp.GrossSpread.Sign() >= 0)
		})
	}
}

func TestEvaluateEqualOutputsNeverProfitable(t *testing.T) {
	// Zero spread loses to any fee/gas combination, including zero.
	opp := Evaluate(
		quoteOf("Uniswap", eth(10), eth(100)),
		quoteOf("Sushiswap", eth(10), eth(100)),
		"WETH-DAI", 0, big.NewInt(0), 0,
	)
	assert.False(t, opp.Profitable)
	assert.Equal(t, 0, opp.GrossSpread.Sign())
}

func TestEvaluateFlashLoanFeeFloors(t *testing.T) {
	// fee = floor(10e18 * 9 / 10000) = 9e15
	opp := Evaluate(
		quoteOf("Uniswap", eth(10), eth(105)),
		quoteOf("Sushiswap", eth(10), eth(100)),
		"WETH-DAI", 9, big.NewInt(0), 0,
	)
	want := new(big.Int).Div(new(big.Int).Mul(eth(10), big.NewInt(9)), big.NewInt(10000))
	assert.Equal(t, 0, opp.FlashLoanFee.Cmp(want))

	// An amount that does not divide evenly must truncate, not round up.
	in := big.NewInt(10001)
	opp = Evaluate(
		quoteOf("Uniswap", in, big.NewInt(10100)),
		quoteOf("Sushiswap", in, big.NewInt(10000)),
		"WETH-DAI", 9, big.NewInt(0), 0,
	)
	// 10001 * 9 / 10000 = 9.0009 -> 9
	assert.Equal(t, int64(9), opp.FlashLoanFee.Int64())
}

func TestEvaluateNetProfitArithmetic(t *testing.T) {
	// Scenario: A=105, B=100, fee=9bps on 10e18, gasPrice=20, gasUnits=500000.
	opp := Evaluate(
		quoteOf("Uniswap", eth(10), eth(105)),
		quoteOf("Sushiswap", eth(10), eth(100)),
		"WETH-DAI", 9, big.NewInt(20), 500000,
	)

	assert.Equal(t, "Sushiswap", opp.BuyVenue)
	assert.Equal(t, "Uniswap", opp.SellVenue)
	assert.Equal(t, 0, opp.GrossSpread.Cmp(eth(5)))

	fee := new(big.Int).Div(new(big.Int).Mul(eth(10), big.NewInt(9)), big.NewInt(10000))
	gas := big.NewInt(20 * 500000)
	want := new(big.Int).Sub(eth(5), fee)
	want.Sub(want, gas)

	assert.Equal(t, 0, opp.NetProfit.Cmp(want))
	assert.Equal(t, want.Sign() > 0, opp.Profitable)
}

func TestEvaluateNetProfitCanBeNegative(t *testing.T) {
	// Spread of 1 wei against a real gas bill.
	opp := Evaluate(
		quoteOf("Uniswap", eth(10), new(big.Int).Add(eth(100), big.NewInt(1))),
		quoteOf("Sushiswap", eth(10), eth(100)),
		"WETH-DAI", 9, big.NewInt(20_000_000_000), 500000,
	)
	assert.True(t, opp.NetProfit.Sign() < 0)
	assert.False(t, opp.Profitable)
}

func TestEvaluateExactlyZeroNetProfitIsNotProfitable(t *testing.T) {
	// Spread exactly covers fee + gas: 9e15 fee + 1e7 gas.
	fee := new(big.Int).Div(new(big.Int).Mul(eth(10), big.NewInt(9)), big.NewInt(10000))
	spread := new(big.Int).Add(fee, big.NewInt(20*500000))

	opp := Evaluate(
		quoteOf("Uniswap", eth(10), new(big.Int).Add(eth(100), spread)),
		quoteOf("Sushiswap", eth(10), eth(100)),
		"WETH-DAI", 9, big.NewInt(20), 500000,
	)
	assert.Equal(t, 0, opp.NetProfit.Sign())
	assert.False(t, opp.Profitable)
}

func TestNetProfitETH(t *testing.T) {
	opp := Opportunity{NetProfit: big.NewInt(25e14)} // 0.0025 ETH
	assert.True(t, opp.NetProfitETH().Equal(decimal.NewFromFloat(0.0025)))
}
