// Package store provides the record repositories backing the GreenStake API:
// an in-memory process-lifetime store (the default) and an optional
// Postgres-backed implementation behind the same method sets.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"greenstake/internal/domain"
	gserrors "greenstake/pkg/errors"
)

// MemoryStore holds forecast, stake and trade records for the life of the
// process. Creates assign the id, initial version and timestamp; updates
// merge partial fields under the store lock, so concurrent PATCHes to the
// same id serialize. No eviction, no persistence.
type MemoryStore struct {
	mu        sync.RWMutex
	forecasts map[uuid.UUID]domain.Forecast
	stakes    map[uuid.UUID]domain.Stake
	trades    map[uuid.UUID]domain.Trade
	now       func() time.Time
}

// NewMemory constructs an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		forecasts: make(map[uuid.UUID]domain.Forecast),
		stakes:    make(map[uuid.UUID]domain.Stake),
		trades:    make(map[uuid.UUID]domain.Trade),
		now:       time.Now,
	}
}

// CreateForecast assigns id, version and timestamp, then stores the record.
func (s *MemoryStore) CreateForecast(_ context.Context, f *domain.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = uuid.New()
	f.Version = 1
	f.Timestamp = s.now()
	s.forecasts[f.ID] = *f
	return nil
}

// ListForecastsByWallet returns forecasts for a wallet, newest first.
func (s *MemoryStore) ListForecastsByWallet(_ context.Context, wallet string) ([]*domain.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Forecast, 0)
	for _, f := range s.forecasts {
		if f.WalletAddress == wallet {
			rec := f
			out = append(out, &rec)
		}
	}
	sortNewestFirst(out, func(f *domain.Forecast) time.Time { return f.Timestamp })
	return out, nil
}

// CreateStake assigns id, version and timestamp, then stores the record.
func (s *MemoryStore) CreateStake(_ context.Context, st *domain.Stake) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.ID = uuid.New()
	st.Version = 1
	st.Timestamp = s.now()
	s.stakes[st.ID] = *st
	return nil
}

// UpdateStake merges the non-nil fields of upd into the stored record. The
// id and creation timestamp never change. When upd.Version is set it must
// match the stored version; otherwise the update is last-write-wins.
func (s *MemoryStore) UpdateStake(_ context.Context, id uuid.UUID, upd domain.StakeUpdate) (*domain.Stake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.stakes[id]
	if !ok {
		return nil, gserrors.ErrStakeNotFound
	}
	if upd.Version != nil && *upd.Version != existing.Version {
		return nil, gserrors.ErrVersionConflict
	}

	if upd.WalletAddress != nil {
		existing.WalletAddress = *upd.WalletAddress
	}
	if upd.Amount != nil {
		existing.Amount = *upd.Amount
	}
	if upd.EnergyNeed != nil {
		existing.EnergyNeed = *upd.EnergyNeed
	}
	if upd.TransactionHash != nil {
		existing.TransactionHash = upd.TransactionHash
	}
	if upd.Status != nil {
		existing.Status = *upd.Status
	}
	existing.Version++

	s.stakes[id] = existing
	rec := existing
	return &rec, nil
}

// ListStakesByWallet returns stakes for a wallet, newest first.
func (s *MemoryStore) ListStakesByWallet(_ context.Context, wallet string) ([]*domain.Stake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Stake, 0)
	for _, st := range s.stakes {
		if st.WalletAddress == wallet {
			rec := st
			out = append(out, &rec)
		}
	}
	sortNewestFirst(out, func(st *domain.Stake) time.Time { return st.Timestamp })
	return out, nil
}

// CreateTrade assigns id, version and timestamp, then stores the record.
func (s *MemoryStore) CreateTrade(_ context.Context, t *domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.New()
	t.Version = 1
	t.Timestamp = s.now()
	s.trades[t.ID] = *t
	return nil
}

// UpdateTrade merges the non-nil fields of upd into the stored record, with
// the same id/timestamp/version semantics as UpdateStake.
func (s *MemoryStore) UpdateTrade(_ context.Context, id uuid.UUID, upd domain.TradeUpdate) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.trades[id]
	if !ok {
		return nil, gserrors.ErrTradeNotFound
	}
	if upd.Version != nil && *upd.Version != existing.Version {
		return nil, gserrors.ErrVersionConflict
	}

	if upd.WalletAddress != nil {
		existing.WalletAddress = *upd.WalletAddress
	}
	if upd.FromChain != nil {
		existing.FromChain = *upd.FromChain
	}
	if upd.ToChain != nil {
		existing.ToChain = *upd.ToChain
	}
	if upd.EtkAmount != nil {
		existing.EtkAmount = *upd.EtkAmount
	}
	if upd.PyusdAmount != nil {
		existing.PyusdAmount = *upd.PyusdAmount
	}
	if upd.TransactionHash != nil {
		existing.TransactionHash = upd.TransactionHash
	}
	if upd.Status != nil {
		existing.Status = *upd.Status
	}
	existing.Version++

	s.trades[id] = existing
	rec := existing
	return &rec, nil
}

// ListTradesByWallet returns trades for a wallet, newest first.
func (s *MemoryStore) ListTradesByWallet(_ context.Context, wallet string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Trade, 0)
	for _, t := range s.trades {
		if t.WalletAddress == wallet {
			rec := t
			out = append(out, &rec)
		}
	}
	sortNewestFirst(out, func(t *domain.Trade) time.Time { return t.Timestamp })
	return out, nil
}

func sortNewestFirst[T any](records []*T, ts func(*T) time.Time) {
	sort.SliceStable(records, func(i, j int) bool {
		return ts(records[i]).After(ts(records[j]))
	})
}
