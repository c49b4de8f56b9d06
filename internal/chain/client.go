package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"greenstake/internal/domain"
	gserrors "greenstake/pkg/errors"
	"greenstake/pkg/logger"
)

const defaultCallTimeout = 15 * time.Second

// etkDecimals is the token precision used when converting between ETK
// amounts and their on-chain uint256 representation.
const etkDecimals = 18

// Options configures the chain client. PrivateKey is optional; without it
// the client is read-only and write methods fail with ErrChainNotConfigured.
type Options struct {
	RPCURL          string
	ChainID         int64
	ContractAddress string
	PythAddress     string
	PrivateKey      string
	CallTimeout     time.Duration
}

// Client talks to the GreenStakeDEX contract and its Pyth price oracle over
// a JSON-RPC endpoint. The connection is dialed lazily on first use so the
// API can start while the RPC endpoint is still coming up.
type Client struct {
	opts   Options
	logger logger.Logger

	mu       sync.Mutex
	eth      *ethclient.Client
	dex      *bind.BoundContract
	pyth     *bind.BoundContract
	signer   *bind.TransactOpts
	key      *ecdsa.PrivateKey
	pending  map[string]*types.Transaction
	dexAddr  common.Address
	pythAddr common.Address
}

// ContractStake mirrors the Stake struct returned by getUserStakes.
type ContractStake struct {
	User       common.Address
	Amount     *big.Int
	EnergyNeed *big.Int
	Timestamp  *big.Int
	Active     bool
}

// ContractTrade mirrors the Trade struct returned by getUserTrades.
type ContractTrade struct {
	User        common.Address
	FromChain   string
	ToChain     string
	EtkAmount   *big.Int
	PyusdAmount *big.Int
	Timestamp   *big.Int
	Completed   bool
}

// NewClient validates the options and returns an undialed client.
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if opts.RPCURL == "" {
		return nil, gserrors.ErrChainNotConfigured
	}
	if !common.IsHexAddress(opts.ContractAddress) {
		return nil, gserrors.Wrap(gserrors.ErrChainNotConfigured, "invalid contract address")
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	c := &Client{
		opts:    opts,
		logger:  log,
		pending: make(map[string]*types.Transaction),
		dexAddr: common.HexToAddress(opts.ContractAddress),
	}
	if opts.PythAddress != "" {
		if !common.IsHexAddress(opts.PythAddress) {
			return nil, gserrors.Wrap(gserrors.ErrChainNotConfigured, "invalid pyth address")
		}
		c.pythAddr = common.HexToAddress(opts.PythAddress)
	}

	if opts.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(opts.PrivateKey, "0x"))
		if err != nil {
			return nil, gserrors.Wrap(err, "failed to parse chain private key")
		}
		c.key = key
	}

	return c, nil
}

func (c *Client) ensureDialed(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eth != nil {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	eth, err := ethclient.DialContext(dialCtx, c.opts.RPCURL)
	if err != nil {
		return gserrors.Wrap(err, "failed to dial chain rpc")
	}

	c.eth = eth
	c.dex = bind.NewBoundContract(c.dexAddr, dexABI, eth, eth, eth)
	if c.pythAddr != (common.Address{}) {
		c.pyth = bind.NewBoundContract(c.pythAddr, pythABI, eth, eth, eth)
	}

	if c.key != nil {
		signer, err := bind.NewKeyedTransactorWithChainID(c.key, big.NewInt(c.opts.ChainID))
		if err != nil {
			return gserrors.Wrap(err, "failed to build transactor")
		}
		c.signer = signer
	}

	c.logger.Info("Connected to chain RPC", logger.Fields{
		"chain_id": c.opts.ChainID,
		"contract": c.dexAddr.Hex(),
	})
	return nil
}

// call runs a read against the DEX contract, or against the Pyth contract
// when pyth is true. The connection is dialed on first use.
func (c *Client) call(ctx context.Context, pyth bool, method string, args ...interface{}) ([]interface{}, error) {
	if err := c.ensureDialed(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	contract := c.dex
	if pyth {
		contract = c.pyth
	}
	c.mu.Unlock()
	if contract == nil {
		return nil, gserrors.ErrChainNotConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: callCtx}, &out, method, args...); err != nil {
		return nil, gserrors.Wrap(err, "contract call "+method+" failed")
	}
	return out, nil
}

// Stats reads aggregate contract totals. TVL is reported in ETK.
func (c *Client) Stats(ctx context.Context) (*domain.ChainStats, error) {
	out, err := c.call(ctx, false, "getStats")
	if err != nil {
		return nil, err
	}

	tvl, ok := out[0].(*big.Int)
	if !ok {
		return nil, gserrors.Wrap(gserrors.ErrPriceUnavailable, "unexpected getStats output")
	}
	stakes, _ := out[1].(*big.Int)
	trades, _ := out[2].(*big.Int)

	return &domain.ChainStats{
		TVL:         decimal.NewFromBigInt(tvl, -etkDecimals),
		StakesCount: stakes.Int64(),
		TradesCount: trades.Int64(),
	}, nil
}

// CurrentPrice reads the last ETH/USD price the contract saw from Pyth.
func (c *Client) CurrentPrice(ctx context.Context) (*domain.OraclePrice, error) {
	out, err := c.call(ctx, false, "getCurrentEnergyPrice")
	if err != nil {
		return nil, err
	}

	price, ok := out[0].(int64)
	if !ok {
		return nil, gserrors.Wrap(gserrors.ErrPriceUnavailable, "unexpected price output")
	}
	expo, _ := out[1].(int32)
	publishTime, _ := out[2].(*big.Int)

	return &domain.OraclePrice{
		Price:       price,
		Expo:        expo,
		PublishTime: time.Unix(publishTime.Int64(), 0).UTC(),
	}, nil
}

// ActiveStakeBalance returns the wallet's currently active staked ETK.
func (c *Client) ActiveStakeBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	out, err := c.call(ctx, false, "getActiveStakeBalance", common.HexToAddress(wallet))
	if err != nil {
		return decimal.Zero, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, gserrors.Wrap(gserrors.ErrPriceUnavailable, "unexpected balance output")
	}
	return decimal.NewFromBigInt(balance, -etkDecimals), nil
}

// TotalStaked returns the wallet's lifetime staked ETK, active or not.
func (c *Client) TotalStaked(ctx context.Context, wallet string) (decimal.Decimal, error) {
	out, err := c.call(ctx, false, "totalStaked", common.HexToAddress(wallet))
	if err != nil {
		return decimal.Zero, err
	}
	total, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, gserrors.Wrap(gserrors.ErrPriceUnavailable, "unexpected totalStaked output")
	}
	return decimal.NewFromBigInt(total, -etkDecimals), nil
}

// UserStakes lists the wallet's on-chain stake entries.
func (c *Client) UserStakes(ctx context.Context, wallet string) ([]ContractStake, error) {
	out, err := c.call(ctx, false, "getUserStakes", common.HexToAddress(wallet))
	if err != nil {
		return nil, err
	}
	stakes := *abi.ConvertType(out[0], new([]ContractStake)).(*[]ContractStake)
	return stakes, nil
}

// UserTrades lists the wallet's on-chain trade entries.
func (c *Client) UserTrades(ctx context.Context, wallet string) ([]ContractTrade, error) {
	out, err := c.call(ctx, false, "getUserTrades", common.HexToAddress(wallet))
	if err != nil {
		return nil, err
	}
	trades := *abi.ConvertType(out[0], new([]ContractTrade)).(*[]ContractTrade)
	return trades, nil
}

func (c *Client) transact(ctx context.Context, method string, value *big.Int, args ...interface{}) (string, error) {
	if err := c.ensureDialed(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	signer := c.signer
	c.mu.Unlock()
	if signer == nil {
		return "", gserrors.ErrChainNotConfigured
	}

	opts := &bind.TransactOpts{
		From:    signer.From,
		Signer:  signer.Signer,
		Value:   value,
		Context: ctx,
	}

	tx, err := c.dex.Transact(opts, method, args...)
	if err != nil {
		return "", gserrors.Wrap(err, "transaction "+method+" failed")
	}

	hash := tx.Hash().Hex()
	c.mu.Lock()
	c.pending[hash] = tx
	c.mu.Unlock()

	c.logger.Info("Submitted transaction", logger.Fields{
		"method":  method,
		"tx_hash": hash,
	})
	return hash, nil
}

// SubmitStake locks amountWei of ETK for the given energy need and returns
// the transaction hash without waiting for it to mine.
func (c *Client) SubmitStake(ctx context.Context, energyNeed int, amountWei *big.Int) (string, error) {
	return c.transact(ctx, "stake", amountWei, big.NewInt(int64(energyNeed)))
}

// SubmitPriceUpdate pushes fresh Pyth update data on chain, paying the
// oracle fee quoted by getUpdateFee.
func (c *Client) SubmitPriceUpdate(ctx context.Context, updateData [][]byte) (string, error) {
	fee, err := c.updateFee(ctx, updateData)
	if err != nil {
		return "", err
	}
	return c.transact(ctx, "updatePriceFeeds", fee, updateData)
}

// SubmitTrade executes a cross-chain trade at the current oracle price.
func (c *Client) SubmitTrade(ctx context.Context, fromChain, toChain string, etkAmount, pyusdAmount decimal.Decimal) (string, error) {
	return c.transact(ctx, "executeTrade", nil,
		fromChain, toChain, toWei(etkAmount), toWei(pyusdAmount))
}

// WaitConfirmed blocks until the transaction mines, returning ErrTxReverted
// if it mined with a failure status.
func (c *Client) WaitConfirmed(ctx context.Context, txHash string) error {
	c.mu.Lock()
	tx, ok := c.pending[txHash]
	eth := c.eth
	c.mu.Unlock()
	if !ok || eth == nil {
		return gserrors.Wrap(gserrors.ErrTxReverted, "unknown transaction "+txHash)
	}

	receipt, err := bind.WaitMined(ctx, eth, tx)
	if err != nil {
		return gserrors.Wrap(err, "waiting for transaction "+txHash)
	}

	c.mu.Lock()
	delete(c.pending, txHash)
	c.mu.Unlock()

	if receipt.Status != types.ReceiptStatusSuccessful {
		return gserrors.ErrTxReverted
	}
	return nil
}

func (c *Client) updateFee(ctx context.Context, updateData [][]byte) (*big.Int, error) {
	out, err := c.call(ctx, true, "getUpdateFee", updateData)
	if err != nil {
		return nil, err
	}
	fee, ok := out[0].(*big.Int)
	if !ok {
		return nil, gserrors.Wrap(gserrors.ErrPriceUnavailable, "unexpected getUpdateFee output")
	}
	return fee, nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
}

func toWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(etkDecimals).BigInt()
}
