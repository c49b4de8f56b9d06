// Package forecast produces energy consumption predictions, delegating to a
// hosted text-generation endpoint with a deterministic computed fallback.
package forecast

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"regexp"
	"strconv"

	"greenstake/internal/domain"
	"greenstake/pkg/logger"
)

// Accepted prediction range in kWh. Upstream values outside it are treated
// as noise and replaced by the computed fallback.
const (
	rangeMin = 1000
	rangeMax = 2000
)

// DefaultHistoricalData is the demo consumption sequence used when the
// caller supplies none.
var DefaultHistoricalData = []int{1000, 1200, 1100, 1350, 1250}

var firstIntRe = regexp.MustCompile(`\d+`)

// Predictor produces free-form text for a consumption prediction prompt.
type Predictor interface {
	Predict(ctx context.Context, historical []int) (string, error)
}

// Repository persists forecast records.
type Repository interface {
	CreateForecast(ctx context.Context, f *domain.Forecast) error
	ListForecastsByWallet(ctx context.Context, wallet string) ([]*domain.Forecast, error)
}

type Service struct {
	repo      Repository
	predictor Predictor
	logger    logger.Logger
}

// NewService constructs a forecast Service. predictor may be nil, in which
// case every forecast takes the fallback path.
func NewService(repo Repository, predictor Predictor, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		predictor: predictor,
		logger:    log,
	}
}

// GenerateRequest is the POST /api/forecast body.
type GenerateRequest struct {
	WalletAddress  string `json:"walletAddress" validate:"required,wallet"`
	HistoricalData []int  `json:"historicalData" validate:"omitempty,min=1,dive,gt=0"`
}

// Generate predicts the next period's consumption for a wallet and stores
// the forecast. Upstream inference failure never fails the request; the
// fallback value is used instead.
func (s *Service) Generate(ctx context.Context, req *GenerateRequest) (*domain.Forecast, error) {
	historical := req.HistoricalData
	if len(historical) == 0 {
		historical = DefaultHistoricalData
	}

	predicted := s.predict(ctx, historical)

	data, err := json.Marshal(historical)
	if err != nil {
		return nil, err
	}

	f := &domain.Forecast{
		WalletAddress:        req.WalletAddress,
		HistoricalData:       string(data),
		PredictedConsumption: predicted,
	}
	if err := s.repo.CreateForecast(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("Forecast created", logger.Fields{
		"forecast_id": f.ID,
		"wallet":      f.WalletAddress,
		"predicted":   f.PredictedConsumption,
	})
	return f, nil
}

// ListByWallet returns a wallet's forecasts, newest first.
func (s *Service) ListByWallet(ctx context.Context, wallet string) ([]*domain.Forecast, error) {
	return s.repo.ListForecastsByWallet(ctx, wallet)
}

func (s *Service) predict(ctx context.Context, historical []int) int {
	if s.predictor != nil {
		text, err := s.predictor.Predict(ctx, historical)
		if err == nil {
			if v, ok := firstInt(text); ok && v >= rangeMin && v <= rangeMax {
				return v
			}
			s.logger.Warn("Upstream prediction unusable, using fallback", logger.Fields{
				"generated_text": text,
			})
		} else {
			s.logger.Warn("Upstream prediction failed, using fallback", logger.Fields{
				"error": err.Error(),
			})
		}
	}
	return Fallback(historical)
}

// Fallback computes the mean of the historical sequence perturbed by ±10%
// uniform noise, rounded to the nearest kWh.
func Fallback(historical []int) int {
	sum := 0
	for _, v := range historical {
		sum += v
	}
	avg := float64(sum) / float64(len(historical))
	noise := rand.Float64()*0.2 - 0.1
	return int(math.Round(avg * (1 + noise)))
}

func firstInt(text string) (int, bool) {
	match := firstIntRe.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return v, true
}
