package tradeflow

import (
	"context"

	"greenstake/internal/domain"
	gserrors "greenstake/pkg/errors"
	"greenstake/pkg/logger"
)

// Bridge moves assets between chains ahead of a cross-chain trade. The
// bridge is optional; without one, cross-chain trades settle through the
// contract alone.
type Bridge interface {
	Balances(ctx context.Context, wallet string) ([]domain.BridgeAsset, error)
	Transfer(ctx context.Context, asset domain.BridgeAsset, toChain string) (string, error)
}

// WithBridge attaches a bridge to the flow and returns it for chaining.
func (f *TradeFlow) WithBridge(b Bridge) *TradeFlow {
	f.bridge = b
	return f
}

// bridgeTransfer moves the trade's ETK to the destination chain. The wallet
// must hold an ETK balance on the source chain covering the trade.
func (f *TradeFlow) bridgeTransfer(ctx context.Context, req TradeRequest) error {
	assets, err := f.bridge.Balances(ctx, req.WalletAddress)
	if err != nil {
		return gserrors.Wrap(gserrors.ErrBridgeUnavailable, err.Error())
	}

	for _, asset := range assets {
		if asset.Symbol != "ETK" {
			continue
		}
		if err := asset.Validate(); err != nil {
			return gserrors.Wrap(gserrors.ErrBridgeUnavailable, err.Error())
		}
		if asset.Amount.LessThan(req.EtkAmount) {
			return gserrors.Wrap(gserrors.ErrBridgeUnavailable, "insufficient bridgeable ETK balance")
		}

		asset.Amount = req.EtkAmount
		hash, err := f.bridge.Transfer(ctx, asset, req.ToChain)
		if err != nil {
			return gserrors.Wrap(gserrors.ErrBridgeUnavailable, err.Error())
		}

		f.logger.Info("Bridge transfer submitted", logger.Fields{
			"wallet":   req.WalletAddress,
			"to_chain": req.ToChain,
			"tx_hash":  hash,
		})
		return nil
	}

	return gserrors.Wrap(gserrors.ErrBridgeUnavailable, "wallet holds no bridgeable ETK")
}
