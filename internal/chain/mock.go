package chain

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"greenstake/internal/domain"
)

// MockSource stands in for the contract when no RPC endpoint is configured,
// so the demo runs end to end without a funded Sepolia account. Prices
// wander around a base value and transactions confirm instantly.
type MockSource struct {
	mu          sync.Mutex
	tvl         decimal.Decimal
	stakesCount int64
	tradesCount int64
	basePrice   int64
	seq         int
	now         func() time.Time
}

// NewMockSource seeds the mock with plausible demo totals.
func NewMockSource() *MockSource {
	return &MockSource{
		tvl:         decimal.NewFromInt(12500),
		stakesCount: 48,
		tradesCount: 31,
		basePrice:   245000000000, // $2450.00 at expo -8
		now:         time.Now,
	}
}

// Stats returns the running demo totals.
func (m *MockSource) Stats(_ context.Context) (*domain.ChainStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &domain.ChainStats{
		TVL:         m.tvl,
		StakesCount: m.stakesCount,
		TradesCount: m.tradesCount,
	}, nil
}

// CurrentPrice returns a synthetic ETH/USD price within 2% of the base.
func (m *MockSource) CurrentPrice(_ context.Context) (*domain.OraclePrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jitter := 1 + (rand.Float64()*0.04 - 0.02)
	price := int64(float64(m.basePrice) * jitter)

	return &domain.OraclePrice{
		Price:       price,
		Expo:        -8,
		PublishTime: m.now().UTC(),
	}, nil
}

// PriceUpdateData returns a placeholder payload.
func (m *MockSource) PriceUpdateData(_ context.Context) ([][]byte, error) {
	return [][]byte{[]byte("mock-price-update")}, nil
}

// SubmitStake records the stake in the demo totals.
func (m *MockSource) SubmitStake(_ context.Context, _ int, amountWei *big.Int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tvl = m.tvl.Add(decimal.NewFromBigInt(amountWei, -etkDecimals))
	m.stakesCount++
	return m.nextHash(), nil
}

// SubmitPriceUpdate pretends to refresh the oracle.
func (m *MockSource) SubmitPriceUpdate(_ context.Context, _ [][]byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextHash(), nil
}

// SubmitTrade records the trade in the demo totals.
func (m *MockSource) SubmitTrade(_ context.Context, _, _ string, _, _ decimal.Decimal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tradesCount++
	return m.nextHash(), nil
}

// WaitConfirmed always succeeds; mock transactions mine immediately.
func (m *MockSource) WaitConfirmed(_ context.Context, _ string) error {
	return nil
}

// Balances reports a demo bridgeable ETK balance for any wallet.
func (m *MockSource) Balances(_ context.Context, _ string) ([]domain.BridgeAsset, error) {
	token := "0x00000000000000000000000000000000000e7e4b"
	return []domain.BridgeAsset{
		{
			Kind:     domain.AssetKindNative,
			Symbol:   "ETH",
			Decimals: 18,
			Amount:   decimal.NewFromFloat(1.5),
			ChainID:  11155111,
		},
		{
			Kind:         domain.AssetKindERC20,
			Symbol:       "ETK",
			Decimals:     18,
			Amount:       decimal.NewFromInt(500),
			ChainID:      11155111,
			TokenAddress: &token,
		},
	}, nil
}

// Transfer validates the asset and pretends to bridge it.
func (m *MockSource) Transfer(_ context.Context, asset domain.BridgeAsset, _ string) (string, error) {
	if err := asset.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextHash(), nil
}

func (m *MockSource) nextHash() string {
	m.seq++
	return fmt.Sprintf("0x%064x", m.seq)
}
