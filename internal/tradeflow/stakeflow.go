package tradeflow

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"greenstake/internal/domain"
	"greenstake/internal/stake"
	gserrors "greenstake/pkg/errors"
	"greenstake/pkg/logger"
)

// MinStakeAmount is the contract's minimum stake in ETK.
var MinStakeAmount = decimal.NewFromInt(10)

const etkDecimals = 18

// StakeRequest describes a stake to place.
type StakeRequest struct {
	WalletAddress string
	Amount        decimal.Decimal
	EnergyNeed    int
}

// StakeFlow places a stake on chain and keeps the record store in step:
// pending on submission, confirmed with the transaction hash once mined,
// failed otherwise.
type StakeFlow struct {
	contract Contract
	records  Records
	logger   logger.Logger
}

// NewStakeFlow constructs a StakeFlow.
func NewStakeFlow(contract Contract, records Records, log logger.Logger) *StakeFlow {
	return &StakeFlow{
		contract: contract,
		records:  records,
		logger:   log,
	}
}

// Execute runs the stake journey end to end.
func (f *StakeFlow) Execute(ctx context.Context, req StakeRequest) (*domain.Stake, error) {
	if req.Amount.LessThan(MinStakeAmount) {
		return nil, gserrors.ErrAmountBelowMinimum
	}

	rec, err := f.records.CreateStake(ctx, &stake.CreateRequest{
		WalletAddress: req.WalletAddress,
		Amount:        req.Amount,
		EnergyNeed:    req.EnergyNeed,
		Status:        domain.StakeStatusPending,
	})
	if err != nil {
		return nil, gserrors.Wrap(err, "failed to record stake")
	}

	txHash, err := f.contract.SubmitStake(ctx, req.EnergyNeed, toWei(req.Amount))
	if err != nil {
		if IsUserRejected(err) {
			err = gserrors.ErrUserRejected
		}
		return nil, f.fail(ctx, rec, err)
	}

	if err := f.contract.WaitConfirmed(ctx, txHash); err != nil {
		return nil, f.fail(ctx, rec, err)
	}

	confirmed := domain.StakeStatusConfirmed
	final, err := f.records.UpdateStake(ctx, rec.ID, &stake.UpdateRequest{
		Status:          &confirmed,
		TransactionHash: &txHash,
	})
	if err != nil {
		return nil, gserrors.Wrap(err, "failed to record stake result")
	}

	f.logger.Info("Stake confirmed", logger.Fields{
		"stake_id": final.ID,
		"tx_hash":  txHash,
	})
	return final, nil
}

func (f *StakeFlow) fail(ctx context.Context, rec *domain.Stake, cause error) error {
	failed := domain.StakeStatusFailed
	if _, err := f.records.UpdateStake(ctx, rec.ID, &stake.UpdateRequest{Status: &failed}); err != nil {
		f.logger.Error("Failed to mark stake failed", logger.Fields{
			"stake_id": rec.ID,
			"error":    err.Error(),
		})
	}

	f.logger.Warn("Stake aborted", logger.Fields{
		"stake_id": rec.ID,
		"error":    cause.Error(),
	})
	return cause
}

func toWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(etkDecimals).BigInt()
}
