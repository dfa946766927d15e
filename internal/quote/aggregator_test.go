package quote

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	dai  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	uniswap   = Venue{Name: "Uniswap", Router: common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")}
	sushiswap = Venue{Name: "Sushiswap", Router: common.HexToAddress("0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F")}
)

// fakeCaller answers getAmountsOut per router address.
type fakeCaller struct {
	amounts map[common.Address][]*big.Int
	errs    map[common.Address]error
	calls   []ethereum.CallMsg
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, call)
	if err, ok := f.errs[*call.To]; ok {
		return nil, err
	}
	parsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, err
	}
	return parsed.Methods["getAmountsOut"].Outputs.Pack(f.amounts[*call.To])
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestGetQuoteReturnsFinalHopOutput(t *testing.T) {
	caller := &fakeCaller{amounts: map[common.Address][]*big.Int{
		uniswap.Router: {eth(10), eth(105)},
	}}
	agg, err := NewAggregator(caller)
	require.NoError(t, err)

	q, err := agg.GetQuote(context.Background(), uniswap, []common.Address{weth, dai}, eth(10))
	require.NoError(t, err)
	assert.Equal(t, "Uniswap", q.Venue)
	assert.Equal(t, eth(10), q.AmountIn)
	assert.Equal(t, eth(105), q.AmountOut)
}

func TestGetQuoteMultiHopPicksLastAmount(t *testing.T) {
	caller := &fakeCaller{amounts: map[common.Address][]*big.Int{
		uniswap.Router: {eth(10), eth(50), eth(103)},
	}}
	agg, err := NewAggregator(caller)
	require.NoError(t, err)

	q, err := agg.GetQuote(context.Background(), uniswap, []common.Address{weth, dai, weth}, eth(10))
	require.NoError(t, err)
	assert.Equal(t, eth(103), q.AmountOut)
}

func TestGetQuoteRejectsShortPath(t *testing.T) {
	agg, err := NewAggregator(&fakeCaller{})
	require.NoError(t, err)

	_, err = agg.GetQuote(context.Background(), uniswap, []common.Address{weth}, eth(10))
	assert.Error(t, err)
}

func TestGetQuoteUnavailableOnCallError(t *testing.T) {
	caller := &fakeCaller{errs: map[common.Address]error{
		uniswap.Router: errors.New("connection refused"),
	}}
	agg, err := NewAggregator(caller)
	require.NoError(t, err)

	_, err = agg.GetQuote(context.Background(), uniswap, []common.Address{weth, dai}, eth(10))
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestGetPairQueriesBothVenuesWithSameInput(t *testing.T) {
	caller := &fakeCaller{amounts: map[common.Address][]*big.Int{
		uniswap.Router:   {eth(10), eth(105)},
		sushiswap.Router: {eth(10), eth(100)},
	}}
	agg, err := NewAggregator(caller)
	require.NoError(t, err)

	qa, qb, err := agg.GetPair(context.Background(), uniswap, sushiswap, []common.Address{weth, dai}, eth(10))
	require.NoError(t, err)
	assert.Equal(t, eth(105), qa.AmountOut)
	assert.Equal(t, eth(100), qb.AmountOut)
	assert.Equal(t, qa.AmountIn, qb.AmountIn)
	require.Len(t, caller.calls, 2)
	assert.Equal(t, caller.calls[0].Data, caller.calls[1].Data)
}

func TestGetPairFailsWhenOneVenueIsDown(t *testing.T) {
	caller := &fakeCaller{
		amounts: map[common.Address][]*big.Int{
			uniswap.Router: {eth(10), eth(105)},
		},
		errs: map[common.Address]error{
			sushiswap.Router: errors.New("no liquidity"),
		},
	}
	agg, err := NewAggregator(caller)
	require.NoError(t, err)

	_, _, err = agg.GetPair(context.Background(), uniswap, sushiswap, []common.Address{weth, dai}, eth(10))
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}
