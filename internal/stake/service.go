// Package stake manages stake record lifecycle: creation, partial updates
// reported by the client after on-chain confirmation, and per-wallet listing.
package stake

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"greenstake/internal/domain"
	"greenstake/pkg/logger"
)

// Repository persists stake records.
type Repository interface {
	CreateStake(ctx context.Context, st *domain.Stake) error
	UpdateStake(ctx context.Context, id uuid.UUID, upd domain.StakeUpdate) (*domain.Stake, error)
	ListStakesByWallet(ctx context.Context, wallet string) ([]*domain.Stake, error)
}

type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log,
	}
}

// CreateRequest is the POST /api/stake body.
type CreateRequest struct {
	WalletAddress   string             `json:"walletAddress" validate:"required,wallet"`
	Amount          decimal.Decimal    `json:"amount" validate:"required,gt=0"`
	EnergyNeed      int                `json:"energyNeed" validate:"required,gt=0"`
	TransactionHash *string            `json:"transactionHash" validate:"omitempty,txhash"`
	Status          domain.StakeStatus `json:"status" validate:"omitempty,oneof=pending confirmed failed"`
}

// Create stores a new stake record. Status defaults to pending.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*domain.Stake, error) {
	status := req.Status
	if status == "" {
		status = domain.StakeStatusPending
	}

	st := &domain.Stake{
		WalletAddress:   req.WalletAddress,
		Amount:          req.Amount,
		EnergyNeed:      req.EnergyNeed,
		TransactionHash: req.TransactionHash,
		Status:          status,
	}
	if err := s.repo.CreateStake(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Info("Stake created", logger.Fields{
		"stake_id": st.ID,
		"wallet":   st.WalletAddress,
		"amount":   st.Amount,
		"status":   st.Status,
	})
	return st, nil
}

// UpdateRequest is the PATCH /api/stake/{id} body. All fields are optional;
// Version, when present, must match the stored record.
type UpdateRequest struct {
	WalletAddress   *string             `json:"walletAddress" validate:"omitempty,wallet"`
	Amount          *decimal.Decimal    `json:"amount" validate:"omitempty,gt=0"`
	EnergyNeed      *int                `json:"energyNeed" validate:"omitempty,gt=0"`
	TransactionHash *string             `json:"transactionHash" validate:"omitempty,txhash"`
	Status          *domain.StakeStatus `json:"status" validate:"omitempty,oneof=pending confirmed failed"`
	Version         *int64              `json:"version" validate:"omitempty,gt=0"`
}

// Update merges the supplied fields into an existing stake record.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*domain.Stake, error) {
	st, err := s.repo.UpdateStake(ctx, id, domain.StakeUpdate{
		WalletAddress:   req.WalletAddress,
		Amount:          req.Amount,
		EnergyNeed:      req.EnergyNeed,
		TransactionHash: req.TransactionHash,
		Status:          req.Status,
		Version:         req.Version,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stake updated", logger.Fields{
		"stake_id": st.ID,
		"status":   st.Status,
		"version":  st.Version,
	})
	return st, nil
}

// ListByWallet returns a wallet's stakes, newest first.
func (s *Service) ListByWallet(ctx context.Context, wallet string) ([]*domain.Stake, error) {
	return s.repo.ListStakesByWallet(ctx, wallet)
}
