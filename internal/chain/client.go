// Package chain wraps the Ethereum RPC connection behind the narrow
// interfaces the rest of the bot consumes: contract calls for quotes, gas
// price suggestions, and the flash-loan arbitrage execution call.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
)

const arbitrageABI = `[
 {"inputs":[{"internalType":"address","name":"asset","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"executeArbitrage","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// settlementPollInterval is how often WaitSettled asks for the receipt.
const settlementPollInterval = 2 * time.Second

// Client is the live chain connection. It satisfies quote.Caller,
// arbitrage.GasPricer and arbitrage.Executor.
type Client struct {
	ec       *ethclient.Client
	abi      abi.ABI
	contract common.Address
	priv     *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
}

// Dial connects to the RPC endpoint and verifies it is reachable. An empty
// pkHex leaves the client in read-only mode (quotes and gas only); execution
// then fails until a key is configured.
func Dial(ctx context.Context, rpcURL, pkHex string, contract common.Address) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	chainID, err := ec.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(arbitrageABI))
	if err != nil {
		return nil, err
	}

	c := &Client{
		ec:       ec,
		abi:      parsed,
		contract: contract,
		chainID:  chainID,
	}

	if strings.TrimSpace(pkHex) != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(pkHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		c.priv = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
		log.Info().Str("account", c.from.Hex()).Msg("Using account")
	}

	log.Info().
		Str("chain_id", chainID.String()).
		Str("contract", contract.Hex()).
		Msg("Chain client connected")
	return c, nil
}

// CallContract exposes read-only contract calls (quote.Caller).
func (c *Client) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ec.CallContract(ctx, call, blockNumber)
}

// SuggestGasPrice returns the node's current gas price estimate.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.ec.SuggestGasPrice(ctx)
}

// ExecuteArbitrage submits the executeArbitrage call against the flash-loan
// contract with the given gas price and limit, returning the transaction
// hash. The contract borrows the asset, runs both swap legs, and repays the
// loan atomically; this side only observes success or revert.
func (c *Client) ExecuteArbitrage(ctx context.Context, asset common.Address, amount, gasPrice *big.Int, gasLimit uint64) (common.Hash, error) {
	if c.priv == nil {
		return common.Hash{}, errors.New("no private key configured")
	}

	data, err := c.abi.Pack("executeArbitrage", asset, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack executeArbitrage: %w", err)
	}

	nonce, err := c.ec.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce: %w", err)
	}

	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
		Value:    big.NewInt(0),
	})
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(c.chainID), c.priv)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.ec.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}

	log.Debug().
		Str("tx", signed.Hash().Hex()).
		Str("gas_price", gasPrice.String()).
		Uint64("gas_limit", gasLimit).
		Msg("Transaction submitted")
	return signed.Hash(), nil
}

// WaitSettled polls for the transaction receipt until it lands or ctx ends.
// A mined-but-reverted transaction is a settlement failure.
func (c *Client) WaitSettled(ctx context.Context, hash common.Hash) error {
	ticker := time.NewTicker(settlementPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.ec.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != gethtypes.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", hash.Hex())
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("settlement wait: %w", ctx.Err())
		}
	}
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.ec.Close()
}
