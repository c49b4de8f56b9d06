package forecast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"greenstake/internal/domain"
	"greenstake/pkg/logger"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateForecast(ctx context.Context, f *domain.Forecast) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockRepository) ListForecastsByWallet(ctx context.Context, wallet string) ([]*domain.Forecast, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Forecast), args.Error(1)
}

type stubPredictor struct {
	text string
	err  error
}

func (p *stubPredictor) Predict(_ context.Context, _ []int) (string, error) {
	return p.text, p.err
}

// --- Tests ---

func TestGenerate_UsesUpstreamPrediction(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateForecast", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, &stubPredictor{text: "1475 kWh is expected"}, logger.NewNop())

	f, err := svc.Generate(context.Background(), &GenerateRequest{
		WalletAddress:  "0xabc",
		HistoricalData: []int{1000, 1200, 1100, 1350, 1250},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1475, f.PredictedConsumption)
	assert.Equal(t, "[1000,1200,1100,1350,1250]", f.HistoricalData)
	repo.AssertExpectations(t)
}

func TestGenerate_OutOfRangePredictionFallsBack(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateForecast", mock.Anything, mock.Anything).Return(nil)

	// "50" parses but is outside the accepted range.
	svc := NewService(repo, &stubPredictor{text: "50"}, logger.NewNop())

	historical := []int{1000, 1200, 1100, 1350, 1250}
	f, err := svc.Generate(context.Background(), &GenerateRequest{
		WalletAddress:  "0xabc",
		HistoricalData: historical,
	})

	assert.NoError(t, err)
	assertInFallbackRange(t, f.PredictedConsumption, historical)
}

func TestGenerate_UpstreamErrorFallsBack(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateForecast", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, &stubPredictor{err: errors.New("model loading")}, logger.NewNop())

	historical := []int{1000, 1200, 1100, 1350, 1250}
	f, err := svc.Generate(context.Background(), &GenerateRequest{
		WalletAddress:  "0xabc",
		HistoricalData: historical,
	})

	assert.NoError(t, err)
	assertInFallbackRange(t, f.PredictedConsumption, historical)
}

func TestGenerate_NoPredictorUsesFallback(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateForecast", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, nil, logger.NewNop())

	historical := []int{1000, 1200, 1100, 1350, 1250}
	f, err := svc.Generate(context.Background(), &GenerateRequest{
		WalletAddress:  "0xabc",
		HistoricalData: historical,
	})

	assert.NoError(t, err)
	assertInFallbackRange(t, f.PredictedConsumption, historical)
}

func TestGenerate_EmptyHistoricalUsesDefault(t *testing.T) {
	repo := new(MockRepository)
	var stored *domain.Forecast
	repo.On("CreateForecast", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Forecast)
	}).Return(nil)

	svc := NewService(repo, nil, logger.NewNop())

	_, err := svc.Generate(context.Background(), &GenerateRequest{WalletAddress: "0xabc"})

	assert.NoError(t, err)
	assert.Equal(t, "[1000,1200,1100,1350,1250]", stored.HistoricalData)
}

func TestGenerate_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateForecast", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewService(repo, nil, logger.NewNop())

	_, err := svc.Generate(context.Background(), &GenerateRequest{WalletAddress: "0xabc"})
	assert.Error(t, err)
}

func TestFallback_StaysWithinNoiseBand(t *testing.T) {
	historical := []int{1000, 1200, 1100, 1350, 1250} // mean 1180

	for i := 0; i < 500; i++ {
		v := Fallback(historical)
		assert.GreaterOrEqual(t, v, 1062, "fallback below -10%% band")
		assert.LessOrEqual(t, v, 1298, "fallback above +10%% band")
	}
}

func assertInFallbackRange(t *testing.T, v int, historical []int) {
	t.Helper()
	sum := 0
	for _, h := range historical {
		sum += h
	}
	avg := float64(sum) / float64(len(historical))
	assert.GreaterOrEqual(t, v, int(avg*0.9)-1)
	assert.LessOrEqual(t, v, int(avg*1.1)+1)
}

func TestFirstInt(t *testing.T) {
	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"1475 kWh", 1475, true},
		{"around 1200, give or take", 1200, true},
		{"no digits here", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := firstInt(tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		if ok {
			assert.Equal(t, tc.want, got, tc.text)
		}
	}
}
