// Simulation driver: runs the full forecast -> stake -> trade journey
// against a running API instance, standing in for the browser client.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"greenstake/internal/chain"
	"greenstake/internal/forecast"
	"greenstake/internal/tradeflow"
	"greenstake/pkg/apiclient"
	"greenstake/pkg/config"
	"greenstake/pkg/logger"
)

const demoWallet = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	cfg := config.Load()
	flowLog := logger.New("greenstake-simulate")
	api := apiclient.New(baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 1. Health check
	health, err := api.Health(ctx)
	if err != nil {
		log.Fatalf("API is not reachable at %s: %v", baseURL, err)
	}
	log.Printf("API healthy: status=%s ai=%t storage=%t",
		health.Status, health.Services["ai"], health.Services["storage"])

	// 2. Forecast with demo historical data
	fc, err := api.CreateForecast(ctx, &forecast.GenerateRequest{
		WalletAddress:  demoWallet,
		HistoricalData: forecast.DefaultHistoricalData,
	})
	if err != nil {
		log.Fatalf("Forecast failed: %v", err)
	}
	log.Printf("Forecast: %d kWh predicted for next month", fc.PredictedConsumption)

	// Chain collaborators: real client when an RPC endpoint and key are
	// configured, mock otherwise.
	var (
		contract tradeflow.Contract
		oracle   tradeflow.Oracle
		bridge   tradeflow.Bridge
		onchain  *chain.Client
	)
	if cfg.Chain.RPCURL != "" && cfg.Chain.PrivateKey != "" {
		client, err := chain.NewClient(chain.Options{
			RPCURL:          cfg.Chain.RPCURL,
			ChainID:         cfg.Chain.ChainID,
			ContractAddress: cfg.Chain.ContractAddress,
			PythAddress:     cfg.Chain.PythAddress,
			PrivateKey:      cfg.Chain.PrivateKey,
			CallTimeout:     cfg.Chain.RequestTimeout,
		}, flowLog)
		if err != nil {
			log.Fatalf("Chain client setup failed: %v", err)
		}
		defer client.Close()
		contract = client
		onchain = client
		oracle = chain.NewHermesClient(cfg.Chain.HermesURL, cfg.Chain.PriceFeedID)
		log.Printf("Using live chain at %s", cfg.Chain.RPCURL)
	} else {
		mock := chain.NewMockSource()
		contract = mock
		oracle = mock
		bridge = mock
		log.Printf("Using mock chain")
	}

	// 3. Stake: below-minimum attempt must be rejected, then a valid one.
	stakeFlow := tradeflow.NewStakeFlow(contract, api, flowLog)

	if _, err := stakeFlow.Execute(ctx, tradeflow.StakeRequest{
		WalletAddress: demoWallet,
		Amount:        decimal.NewFromInt(5),
		EnergyNeed:    fc.PredictedConsumption,
	}); err == nil {
		log.Fatal("Below-minimum stake was accepted, expected rejection")
	} else {
		log.Printf("Below-minimum stake rejected as expected: %v", err)
	}

	st, err := stakeFlow.Execute(ctx, tradeflow.StakeRequest{
		WalletAddress: demoWallet,
		Amount:        decimal.NewFromInt(50),
		EnergyNeed:    fc.PredictedConsumption,
	})
	if err != nil {
		log.Fatalf("Stake failed: %v", err)
	}
	log.Printf("Stake confirmed: id=%s tx=%s", st.ID, deref(st.TransactionHash))

	if onchain != nil {
		active, err := onchain.ActiveStakeBalance(ctx, demoWallet)
		if err != nil {
			log.Fatalf("Failed to read active stake balance: %v", err)
		}
		total, err := onchain.TotalStaked(ctx, demoWallet)
		if err != nil {
			log.Fatalf("Failed to read total staked: %v", err)
		}
		chainStakes, err := onchain.UserStakes(ctx, demoWallet)
		if err != nil {
			log.Fatalf("Failed to read on-chain stakes: %v", err)
		}
		log.Printf("On-chain position: active=%s ETK total=%s ETK entries=%d",
			active, total, len(chainStakes))
	}

	// 4. Trade: price refresh then execution through the state machine. The
	// bridge is only available in mock mode; live runs settle through the
	// contract alone.
	tradeFlow := tradeflow.NewTradeFlow(contract, oracle, api, flowLog)
	if bridge != nil {
		tradeFlow.WithBridge(bridge)
	}

	tr, err := tradeFlow.Execute(ctx, tradeflow.TradeRequest{
		WalletAddress: demoWallet,
		FromChain:     "ethereum-sepolia",
		ToChain:       "avail-testnet",
		EtkAmount:     decimal.NewFromInt(25),
		PyusdAmount:   decimal.NewFromFloat(61.25),
	})
	if err != nil {
		log.Fatalf("Trade failed: %v", err)
	}
	log.Printf("Trade executed: id=%s status=%s tx=%s", tr.ID, tr.Status, deref(tr.TransactionHash))

	if onchain != nil {
		chainTrades, err := onchain.UserTrades(ctx, demoWallet)
		if err != nil {
			log.Fatalf("Failed to read on-chain trades: %v", err)
		}
		log.Printf("On-chain trade entries: %d", len(chainTrades))
	}

	// 5. Read back the wallet's history
	stakes, err := api.Stakes(ctx, demoWallet)
	if err != nil {
		log.Fatalf("Failed to list stakes: %v", err)
	}
	trades, err := api.Trades(ctx, demoWallet)
	if err != nil {
		log.Fatalf("Failed to list trades: %v", err)
	}
	forecasts, err := api.Forecasts(ctx, demoWallet)
	if err != nil {
		log.Fatalf("Failed to list forecasts: %v", err)
	}
	log.Printf("Wallet history: %d forecasts, %d stakes, %d trades",
		len(forecasts), len(stakes), len(trades))

	stats, err := api.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch stats: %v", err)
	}
	log.Printf("Stats: tvl=%s stakes=%d trades=%d",
		stats.TVL, stats.StakesCount, stats.TradesCount)

	log.Println("Simulation completed")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
