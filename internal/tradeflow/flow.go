// Package tradeflow drives the multi-step stake and trade journeys against
// the contract, the price oracle, and the records API, tracking progress
// through an explicit state machine.
package tradeflow

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"greenstake/internal/domain"
	"greenstake/internal/stake"
	"greenstake/internal/trade"
	gserrors "greenstake/pkg/errors"
	"greenstake/pkg/logger"
)

// State names a position in the trade journey.
type State string

const (
	StateIdle          State = "idle"
	StateFetchingPrice State = "fetching_price"
	StateUpdatingPrice State = "updating_price"
	StateExecuting     State = "executing"
	StateCompleted     State = "completed"
)

// transitions lists the legal next states from each state. A failed step
// always returns the flow to idle.
var transitions = map[State][]State{
	StateIdle:          {StateFetchingPrice},
	StateFetchingPrice: {StateUpdatingPrice, StateIdle},
	StateUpdatingPrice: {StateExecuting, StateIdle},
	StateExecuting:     {StateCompleted, StateIdle},
	StateCompleted:     {StateFetchingPrice},
}

// Contract submits transactions and waits for them to mine.
type Contract interface {
	SubmitStake(ctx context.Context, energyNeed int, amountWei *big.Int) (string, error)
	SubmitPriceUpdate(ctx context.Context, updateData [][]byte) (string, error)
	SubmitTrade(ctx context.Context, fromChain, toChain string, etkAmount, pyusdAmount decimal.Decimal) (string, error)
	WaitConfirmed(ctx context.Context, txHash string) error
}

// Oracle supplies signed price update payloads.
type Oracle interface {
	PriceUpdateData(ctx context.Context) ([][]byte, error)
}

// Records keeps the API's stake and trade records in step with on-chain
// progress. Satisfied by apiclient.Client.
type Records interface {
	CreateStake(ctx context.Context, req *stake.CreateRequest) (*domain.Stake, error)
	UpdateStake(ctx context.Context, id uuid.UUID, req *stake.UpdateRequest) (*domain.Stake, error)
	CreateTrade(ctx context.Context, req *trade.CreateRequest) (*domain.Trade, error)
	UpdateTrade(ctx context.Context, id uuid.UUID, req *trade.UpdateRequest) (*domain.Trade, error)
}

// TradeRequest describes a cross-chain trade to run.
type TradeRequest struct {
	WalletAddress string
	FromChain     string
	ToChain       string
	EtkAmount     decimal.Decimal
	PyusdAmount   decimal.Decimal
}

// TradeFlow runs one trade at a time: fetch fresh oracle data, push it on
// chain, then execute the trade, recording each stage through the API.
type TradeFlow struct {
	contract Contract
	oracle   Oracle
	records  Records
	bridge   Bridge
	logger   logger.Logger

	mu    sync.Mutex
	state State
}

// NewTradeFlow constructs an idle TradeFlow.
func NewTradeFlow(contract Contract, oracle Oracle, records Records, log logger.Logger) *TradeFlow {
	return &TradeFlow{
		contract: contract,
		oracle:   oracle,
		records:  records,
		logger:   log,
		state:    StateIdle,
	}
}

// State reports the flow's current position.
func (f *TradeFlow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *TradeFlow) transition(to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, allowed := range transitions[f.state] {
		if allowed == to {
			f.logger.Debug("Trade flow transition", logger.Fields{
				"from": string(f.state),
				"to":   string(to),
			})
			f.state = to
			return nil
		}
	}
	return gserrors.Wrap(gserrors.ErrFlowBusy,
		"illegal transition "+string(f.state)+" -> "+string(to))
}

// Execute runs the full trade journey. Only one trade may run at a time; a
// second call while one is in flight fails with ErrFlowBusy. Oracle or
// transaction failures mark the trade record failed and reset the flow.
func (f *TradeFlow) Execute(ctx context.Context, req TradeRequest) (*domain.Trade, error) {
	if err := f.transition(StateFetchingPrice); err != nil {
		return nil, gserrors.ErrFlowBusy
	}

	rec, err := f.records.CreateTrade(ctx, &trade.CreateRequest{
		WalletAddress: req.WalletAddress,
		FromChain:     req.FromChain,
		ToChain:       req.ToChain,
		EtkAmount:     req.EtkAmount,
		PyusdAmount:   req.PyusdAmount,
		Status:        domain.TradeStatusPending,
	})
	if err != nil {
		f.reset()
		return nil, gserrors.Wrap(err, "failed to record trade")
	}

	updateData, err := f.oracle.PriceUpdateData(ctx)
	if err != nil {
		return nil, f.fail(ctx, rec.ID, gserrors.Wrap(err, "price fetch failed"))
	}

	if err := f.transition(StateUpdatingPrice); err != nil {
		return nil, f.fail(ctx, rec.ID, err)
	}

	if err := f.submitAndWait(ctx, func() (string, error) {
		return f.contract.SubmitPriceUpdate(ctx, updateData)
	}); err != nil {
		return nil, f.fail(ctx, rec.ID, err)
	}

	if err := f.transition(StateExecuting); err != nil {
		return nil, f.fail(ctx, rec.ID, err)
	}

	bridging := domain.TradeStatusBridging
	if _, err := f.records.UpdateTrade(ctx, rec.ID, &trade.UpdateRequest{Status: &bridging}); err != nil {
		f.logger.Warn("Failed to mark trade bridging", logger.Fields{
			"trade_id": rec.ID,
			"error":    err.Error(),
		})
	}

	if f.bridge != nil && req.FromChain != req.ToChain {
		if err := f.bridgeTransfer(ctx, req); err != nil {
			return nil, f.fail(ctx, rec.ID, err)
		}
	}

	var txHash string
	if err := f.submitAndWait(ctx, func() (string, error) {
		var submitErr error
		txHash, submitErr = f.contract.SubmitTrade(ctx, req.FromChain, req.ToChain, req.EtkAmount, req.PyusdAmount)
		return txHash, submitErr
	}); err != nil {
		return nil, f.fail(ctx, rec.ID, err)
	}

	executed := domain.TradeStatusExecuted
	final, err := f.records.UpdateTrade(ctx, rec.ID, &trade.UpdateRequest{
		Status:          &executed,
		TransactionHash: &txHash,
	})
	if err != nil {
		f.reset()
		return nil, gserrors.Wrap(err, "failed to record trade result")
	}

	if err := f.transition(StateCompleted); err != nil {
		return nil, err
	}

	f.logger.Info("Trade completed", logger.Fields{
		"trade_id": final.ID,
		"tx_hash":  txHash,
	})
	return final, nil
}

// submitAndWait submits a transaction and blocks until it mines, mapping
// wallet rejections to ErrUserRejected.
func (f *TradeFlow) submitAndWait(ctx context.Context, submit func() (string, error)) error {
	txHash, err := submit()
	if err != nil {
		if IsUserRejected(err) {
			return gserrors.ErrUserRejected
		}
		return err
	}
	return f.contract.WaitConfirmed(ctx, txHash)
}

// fail marks the trade record failed and returns the flow to idle. The
// original error is returned so callers see the cause.
func (f *TradeFlow) fail(ctx context.Context, id uuid.UUID, cause error) error {
	failed := domain.TradeStatusFailed
	if _, err := f.records.UpdateTrade(ctx, id, &trade.UpdateRequest{Status: &failed}); err != nil {
		f.logger.Error("Failed to mark trade failed", logger.Fields{
			"trade_id": id,
			"error":    err.Error(),
		})
	}
	f.reset()

	f.logger.Warn("Trade aborted", logger.Fields{
		"trade_id": id,
		"error":    cause.Error(),
	})
	return cause
}

func (f *TradeFlow) reset() {
	f.mu.Lock()
	f.state = StateIdle
	f.mu.Unlock()
}

// IsUserRejected reports whether the error looks like a wallet-side
// rejection rather than an infrastructure failure.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if gserrors.Is(err, gserrors.ErrUserRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") ||
		strings.Contains(msg, "user denied") ||
		strings.Contains(msg, "request rejected")
}
