// Package quote retrieves swap output quotes from UniswapV2-style routers.
//
// Both venues are always queried with the same input amount and token path so
// the outputs stay directly comparable. The package does no retrying: a failed
// venue call surfaces as ErrQuoteUnavailable and the caller decides how to
// back off.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrQuoteUnavailable marks a venue that is unreachable or has no liquidity
// for the requested path.
var ErrQuoteUnavailable = errors.New("quote unavailable")

const routerABI = `[
 {"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}
]`

// Venue is a liquidity source identified by its router contract.
type Venue struct {
	Name   string
	Router common.Address
}

// Result is one venue's answer for a given input amount and path.
type Result struct {
	Venue     string
	AmountIn  *big.Int
	AmountOut *big.Int
}

// Caller is the read-only chain access the aggregator needs. Satisfied by
// *ethclient.Client.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Aggregator queries router quotes over a chain caller.
type Aggregator struct {
	caller Caller
	abi    abi.ABI
}

// NewAggregator creates an aggregator over the given chain caller.
func NewAggregator(caller Caller) (*Aggregator, error) {
	parsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, err
	}
	return &Aggregator{caller: caller, abi: parsed}, nil
}

// GetQuote asks one venue for the final-hop output of swapping amountIn along
// path. The path must have at least two tokens.
func (a *Aggregator) GetQuote(ctx context.Context, venue Venue, path []common.Address, amountIn *big.Int) (Result, error) {
	if len(path) < 2 {
		return Result{}, fmt.Errorf("path must contain at least 2 tokens, got %d", len(path))
	}

	data, err := a.abi.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return Result{}, fmt.Errorf("pack getAmountsOut: %w", err)
	}

	router := venue.Router
	raw, err := a.caller.CallContract(ctx, ethereum.CallMsg{To: &router, Data: data}, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, venue.Name, err)
	}

	outs, err := a.abi.Methods["getAmountsOut"].Outputs.Unpack(raw)
	if err != nil || len(outs) == 0 {
		return Result{}, fmt.Errorf("%w: %s: decode getAmountsOut", ErrQuoteUnavailable, venue.Name)
	}
	amounts, ok := outs[0].([]*big.Int)
	if !ok || len(amounts) < 2 {
		return Result{}, fmt.Errorf("%w: %s: bad amounts length", ErrQuoteUnavailable, venue.Name)
	}

	return Result{
		Venue:     venue.Name,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amounts[len(amounts)-1]),
	}, nil
}

// GetPair queries two venues with identical inputs. Either failure aborts the
// whole comparison; a half-quoted pair is useless.
func (a *Aggregator) GetPair(ctx context.Context, venueA, venueB Venue, path []common.Address, amountIn *big.Int) (Result, Result, error) {
	qa, err := a.GetQuote(ctx, venueA, path, amountIn)
	if err != nil {
		return Result{}, Result{}, err
	}
	qb, err := a.GetQuote(ctx, venueB, path, amountIn)
	if err != nil {
		return Result{}, Result{}, err
	}
	return qa, qb, nil
}
