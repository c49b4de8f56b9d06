// Package domain defines the record types shared across the GreenStake
// services. JSON field names follow the frontend wire format.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StakeStatus is the lifecycle status of a stake record.
type StakeStatus string

const (
	StakeStatusPending   StakeStatus = "pending"
	StakeStatusConfirmed StakeStatus = "confirmed"
	StakeStatusFailed    StakeStatus = "failed"
)

func (s StakeStatus) Valid() bool {
	switch s {
	case StakeStatusPending, StakeStatusConfirmed, StakeStatusFailed:
		return true
	}
	return false
}

// TradeStatus is the lifecycle status of a cross-chain trade record.
type TradeStatus string

const (
	TradeStatusPending  TradeStatus = "pending"
	TradeStatusBridging TradeStatus = "bridging"
	TradeStatusExecuted TradeStatus = "executed"
	TradeStatusFailed   TradeStatus = "failed"
)

func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusPending, TradeStatusBridging, TradeStatusExecuted, TradeStatusFailed:
		return true
	}
	return false
}

// Forecast is an AI-or-fallback-derived prediction of next-period energy
// consumption. HistoricalData holds the JSON-encoded kWh sequence the
// prediction was derived from.
type Forecast struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	WalletAddress        string    `json:"walletAddress" db:"wallet_address"`
	HistoricalData       string    `json:"historicalData" db:"historical_data"`
	PredictedConsumption int       `json:"predictedConsumption" db:"predicted_consumption"`
	Version              int64     `json:"version" db:"version"`
	Timestamp            time.Time `json:"timestamp" db:"timestamp"`
}

// Stake records a commitment of ETK against a forecasted energy need.
type Stake struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	WalletAddress   string          `json:"walletAddress" db:"wallet_address"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	EnergyNeed      int             `json:"energyNeed" db:"energy_need"`
	TransactionHash *string         `json:"transactionHash" db:"transaction_hash"`
	Status          StakeStatus     `json:"status" db:"status"`
	Version         int64           `json:"version" db:"version"`
	Timestamp       time.Time       `json:"timestamp" db:"timestamp"`
}

// Trade records an exchange of staked ETK for PYUSD settlement, optionally
// crossing a bridge to another chain.
type Trade struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	WalletAddress   string          `json:"walletAddress" db:"wallet_address"`
	FromChain       string          `json:"fromChain" db:"from_chain"`
	ToChain         string          `json:"toChain" db:"to_chain"`
	EtkAmount       decimal.Decimal `json:"etkAmount" db:"etk_amount"`
	PyusdAmount     decimal.Decimal `json:"pyusdAmount" db:"pyusd_amount"`
	TransactionHash *string         `json:"transactionHash" db:"transaction_hash"`
	Status          TradeStatus     `json:"status" db:"status"`
	Version         int64           `json:"version" db:"version"`
	Timestamp       time.Time       `json:"timestamp" db:"timestamp"`
}

// StakeUpdate is a partial update applied to an existing stake. Nil fields
// are left untouched. Version, when set, is the caller's expected current
// version; a mismatch rejects the update.
type StakeUpdate struct {
	WalletAddress   *string
	Amount          *decimal.Decimal
	EnergyNeed      *int
	TransactionHash *string
	Status          *StakeStatus
	Version         *int64
}

// TradeUpdate is a partial update applied to an existing trade.
type TradeUpdate struct {
	WalletAddress   *string
	FromChain       *string
	ToChain         *string
	EtkAmount       *decimal.Decimal
	PyusdAmount     *decimal.Decimal
	TransactionHash *string
	Status          *TradeStatus
	Version         *int64
}
