package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"greenstake/internal/domain"
	gserrors "greenstake/pkg/errors"
)

// PostgresStore is the durable counterpart of MemoryStore, selected when
// DATABASE_URL is configured. Same semantics: creates assign id/version/
// timestamp, updates merge partial fields with an optional version check.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a PostgresStore over an open connection pool.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateForecast(ctx context.Context, f *domain.Forecast) error {
	f.ID = uuid.New()
	f.Version = 1
	f.Timestamp = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO energy_forecasts (id, wallet_address, historical_data, predicted_consumption, version, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.WalletAddress, f.HistoricalData, f.PredictedConsumption, f.Version, f.Timestamp,
	)
	return gserrors.Wrap(err, "insert forecast")
}

func (s *PostgresStore) ListForecastsByWallet(ctx context.Context, wallet string) ([]*domain.Forecast, error) {
	out := make([]*domain.Forecast, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, wallet_address, historical_data, predicted_consumption, version, timestamp
		FROM energy_forecasts
		WHERE wallet_address = $1
		ORDER BY timestamp DESC`,
		wallet,
	)
	if err != nil {
		return nil, gserrors.Wrap(err, "list forecasts")
	}
	return out, nil
}

func (s *PostgresStore) CreateStake(ctx context.Context, st *domain.Stake) error {
	st.ID = uuid.New()
	st.Version = 1
	st.Timestamp = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stakes (id, wallet_address, amount, energy_need, transaction_hash, status, version, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		st.ID, st.WalletAddress, st.Amount, st.EnergyNeed, st.TransactionHash, st.Status, st.Version, st.Timestamp,
	)
	return gserrors.Wrap(err, "insert stake")
}

func (s *PostgresStore) UpdateStake(ctx context.Context, id uuid.UUID, upd domain.StakeUpdate) (*domain.Stake, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, gserrors.Wrap(err, "begin update stake")
	}
	defer tx.Rollback()

	var existing domain.Stake
	err = tx.GetContext(ctx, &existing, `
		SELECT id, wallet_address, amount, energy_need, transaction_hash, status, version, timestamp
		FROM stakes WHERE id = $1 FOR UPDATE`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gserrors.ErrStakeNotFound
	}
	if err != nil {
		return nil, gserrors.Wrap(err, "load stake")
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

	_, err = tx.ExecContext(ctx, `
		UPDATE stakes
		SET wallet_address = $2, amount = $3, energy_need = $4, transaction_hash = $5, status = $6, version = $7
		WHERE id = $1`,
		existing.ID, existing.WalletAddress, existing.Amount, existing.EnergyNeed,
		existing.TransactionHash, existing.Status, existing.Version,
	)
	if err != nil {
		return nil, gserrors.Wrap(err, "update stake")
	}
	if err := tx.Commit(); err != nil {
		return nil, gserrors.Wrap(err, "commit update stake")
	}
	return &existing, nil
}

func (s *PostgresStore) ListStakesByWallet(ctx context.Context, wallet string) ([]*domain.Stake, error) {
	out := make([]*domain.Stake, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, wallet_address, amount, energy_need, transaction_hash, status, version, timestamp
		FROM stakes
		WHERE wallet_address = $1
		ORDER BY timestamp DESC`,
		wallet,
	)
	if err != nil {
		return nil, gserrors.Wrap(err, "list stakes")
	}
	return out, nil
}

func (s *PostgresStore) CreateTrade(ctx context.Context, t *domain.Trade) error {
	t.ID = uuid.New()
	t.Version = 1
	t.Timestamp = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, wallet_address, from_chain, to_chain, etk_amount, pyusd_amount, transaction_hash, status, version, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.WalletAddress, t.FromChain, t.ToChain, t.EtkAmount, t.PyusdAmount,
		t.TransactionHash, t.Status, t.Version, t.Timestamp,
	)
	return gserrors.Wrap(err, "insert trade")
}

func (s *PostgresStore) UpdateTrade(ctx context.Context, id uuid.UUID, upd domain.TradeUpdate) (*domain.Trade, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, gserrors.Wrap(err, "begin update trade")
	}
	defer tx.Rollback()

	var existing domain.Trade
	err = tx.GetContext(ctx, &existing, `
		SELECT id, wallet_address, from_chain, to_chain, etk_amount, pyusd_amount, transaction_hash, status, version, timestamp
		FROM trades WHERE id = $1 FOR UPDATE`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gserrors.ErrTradeNotFound
	}
	if err != nil {
		return nil, gserrors.Wrap(err, "load trade")
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

	_, err = tx.ExecContext(ctx, `
		UPDATE trades
		SET wallet_address = $2, from_chain = $3, to_chain = $4, etk_amount = $5, pyusd_amount = $6, transaction_hash = $7, status = $8, version = $9
		WHERE id = $1`,
		existing.ID, existing.WalletAddress, existing.FromChain, existing.ToChain,
		existing.EtkAmount, existing.PyusdAmount, existing.TransactionHash, existing.Status, existing.Version,
	)
	if err != nil {
		return nil, gserrors.Wrap(err, "update trade")
	}
	if err := tx.Commit(); err != nil {
		return nil, gserrors.Wrap(err, "commit update trade")
	}
	return &existing, nil
}

func (s *PostgresStore) ListTradesByWallet(ctx context.Context, wallet string) ([]*domain.Trade, error) {
	out := make([]*domain.Trade, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, wallet_address, from_chain, to_chain, etk_amount, pyusd_amount, transaction_hash, status, version, timestamp
		FROM trades
		WHERE wallet_address = $1
		ORDER BY timestamp DESC`,
		wallet,
	)
	if err != nil {
		return nil, gserrors.Wrap(err, "list trades")
	}
	return out, nil
}
