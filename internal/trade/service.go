// Package trade manages cross-chain trade record lifecycle.
package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"greenstake/internal/domain"
	"greenstake/pkg/logger"
)

// Repository persists trade records.
type Repository interface {
	CreateTrade(ctx context.Context, t *domain.Trade) error
	UpdateTrade(ctx context.Context, id uuid.UUID, upd domain.TradeUpdate) (*domain.Trade, error)
	ListTradesByWallet(ctx context.Context, wallet string) ([]*domain.Trade, error)
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

// CreateRequest is the POST /api/trade body.
type CreateRequest struct {
	WalletAddress   string             `json:"walletAddress" validate:"required,wallet"`
	FromChain       string             `json:"fromChain" validate:"required"`
	ToChain         string             `json:"toChain" validate:"required"`
	EtkAmount       decimal.Decimal    `json:"etkAmount" validate:"required,gt=0"`
	PyusdAmount     decimal.Decimal    `json:"pyusdAmount" validate:"required,gt=0"`
	TransactionHash *string            `json:"transactionHash" validate:"omitempty,txhash"`
	Status          domain.TradeStatus `json:"status" validate:"omitempty,oneof=pending bridging executed failed"`
}

// Create stores a new trade record. Status defaults to pending.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*domain.Trade, error) {
	status := req.Status
	if status == "" {
		status = domain.TradeStatusPending
	}

	t := &domain.Trade{
		WalletAddress:   req.WalletAddress,
		FromChain:       req.FromChain,
		ToChain:         req.ToChain,
		EtkAmount:       req.EtkAmount,
		PyusdAmount:     req.PyusdAmount,
		TransactionHash: req.TransactionHash,
		Status:          status,
	}
	if err := s.repo.CreateTrade(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("Trade created", logger.Fields{
		"trade_id":   t.ID,
		"wallet":     t.WalletAddress,
		"from_chain": t.FromChain,
		"to_chain":   t.ToChain,
		"status":     t.Status,
	})
	return t, nil
}

// UpdateRequest is the PATCH /api/trade/{id} body.
type UpdateRequest struct {
	WalletAddress   *string             `json:"walletAddress" validate:"omitempty,wallet"`
	FromChain       *string             `json:"fromChain" validate:"omitempty"`
	ToChain         *string             `json:"toChain" validate:"omitempty"`
	EtkAmount       *decimal.Decimal    `json:"etkAmount" validate:"omitempty,gt=0"`
	PyusdAmount     *decimal.Decimal    `json:"pyusdAmount" validate:"omitempty,gt=0"`
	TransactionHash *string             `json:"transactionHash" validate:"omitempty,txhash"`
	Status          *domain.TradeStatus `json:"status" validate:"omitempty,oneof=pending bridging executed failed"`
	Version         *int64              `json:"version" validate:"omitempty,gt=0"`
}

// Update merges the supplied fields into an existing trade record.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*domain.Trade, error) {
	t, err := s.repo.UpdateTrade(ctx, id, domain.TradeUpdate{
		WalletAddress:   req.WalletAddress,
		FromChain:       req.FromChain,
		ToChain:         req.ToChain,
		EtkAmount:       req.EtkAmount,
		PyusdAmount:     req.PyusdAmount,
		TransactionHash: req.TransactionHash,
		Status:          req.Status,
		Version:         req.Version,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Trade updated", logger.Fields{
		"trade_id": t.ID,
		"status":   t.Status,
		"version":  t.Version,
	})
	return t, nil
}

// ListByWallet returns a wallet's trades, newest first.
func (s *Service) ListByWallet(ctx context.Context, wallet string) ([]*domain.Trade, error) {
	return s.repo.ListTradesByWallet(ctx, wallet)
}
