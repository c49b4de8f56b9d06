package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AssetKind discriminates BridgeAsset variants.
type AssetKind string

const (
	AssetKindNative AssetKind = "native"
	AssetKindERC20  AssetKind = "erc20"
)

// BridgeAsset is a typed view of a cross-chain balance reported by the
// bridge SDK. TokenAddress is set only for erc20 assets.
type BridgeAsset struct {
	Kind         AssetKind       `json:"kind"`
	Symbol       string          `json:"symbol"`
	Decimals     int             `json:"decimals"`
	Amount       decimal.Decimal `json:"amount"`
	ChainID      int64           `json:"chainId"`
	TokenAddress *string         `json:"tokenAddress,omitempty"`
}

// Validate enforces the kind-specific invariants of the union.
func (a BridgeAsset) Validate() error {
	switch a.Kind {
	case AssetKindNative:
		if a.TokenAddress != nil {
			return fmt.Errorf("native asset %s must not carry a token address", a.Symbol)
		}
	case AssetKindERC20:
		if a.TokenAddress == nil {
			return fmt.Errorf("erc20 asset %s requires a token address", a.Symbol)
		}
	default:
		return fmt.Errorf("unknown asset kind %q", a.Kind)
	}
	return nil
}

// OraclePrice is the Pyth price exposed by the contract. Price is scaled by
// 10^Expo (Expo is negative for fractional prices).
type OraclePrice struct {
	Price       int64     `json:"price"`
	Expo        int32     `json:"expo"`
	PublishTime time.Time `json:"publishTime"`
}

// Value returns the price as a decimal.
func (p OraclePrice) Value() decimal.Decimal {
	return decimal.New(p.Price, p.Expo)
}

// ChainStats is the aggregate view returned by the contract's getStats.
type ChainStats struct {
	TVL         decimal.Decimal `json:"tvl"`
	StakesCount int64           `json:"stakesCount"`
	TradesCount int64           `json:"tradesCount"`
}
