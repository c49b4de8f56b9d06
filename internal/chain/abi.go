package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// GreenStakeDEX functions and events the services call. The contract is
// deployed on Sepolia; only the surface used here is declared.
const dexABIJSON = `[
  {"inputs":[{"internalType":"uint256","name":"energyNeed","type":"uint256"}],"name":"stake","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"internalType":"string","name":"fromChain","type":"string"},{"internalType":"string","name":"toChain","type":"string"},{"internalType":"uint256","name":"etkAmount","type":"uint256"},{"internalType":"uint256","name":"pyusdAmount","type":"uint256"}],"name":"executeTrade","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"getUserStakes","outputs":[{"components":[{"internalType":"address","name":"user","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"uint256","name":"energyNeed","type":"uint256"},{"internalType":"uint256","name":"timestamp","type":"uint256"},{"internalType":"bool","name":"active","type":"bool"}],"internalType":"struct GreenStakeDEX.Stake[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"getUserTrades","outputs":[{"components":[{"internalType":"address","name":"user","type":"address"},{"internalType":"string","name":"fromChain","type":"string"},{"internalType":"string","name":"toChain","type":"string"},{"internalType":"uint256","name":"etkAmount","type":"uint256"},{"internalType":"uint256","name":"pyusdAmount","type":"uint256"},{"internalType":"uint256","name":"timestamp","type":"uint256"},{"internalType":"bool","name":"completed","type":"bool"}],"internalType":"struct GreenStakeDEX.Trade[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"getStats","outputs":[{"internalType":"uint256","name":"tvl","type":"uint256"},{"internalType":"uint256","name":"stakesCount","type":"uint256"},{"internalType":"uint256","name":"tradesCount","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"getActiveStakeBalance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"totalStaked","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"bytes[]","name":"priceUpdateData","type":"bytes[]"}],"name":"updatePriceFeeds","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[],"name":"getCurrentEnergyPrice","outputs":[{"internalType":"int64","name":"price","type":"int64"},{"internalType":"int32","name":"expo","type":"int32"},{"internalType":"uint256","name":"publishTime","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"user","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"energyNeed","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"timestamp","type":"uint256"}],"name":"Staked","type":"event"},
  {"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"user","type":"address"},{"indexed":false,"internalType":"string","name":"fromChain","type":"string"},{"indexed":false,"internalType":"string","name":"toChain","type":"string"},{"indexed":false,"internalType":"uint256","name":"etkAmount","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"pyusdAmount","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"energyPrice","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"timestamp","type":"uint256"}],"name":"TradeExecuted","type":"event"}
]`

// Pyth fee query used before updatePriceFeeds.
const pythABIJSON = `[
  {"inputs":[{"internalType":"bytes[]","name":"updateData","type":"bytes[]"}],"name":"getUpdateFee","outputs":[{"internalType":"uint256","name":"feeAmount","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	dexABI  abi.ABI
	pythABI abi.ABI
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(dexABIJSON))
	if err != nil {
		panic("failed to parse GreenStakeDEX ABI: " + err.Error())
	}
	dexABI = parsed

	parsed, err = abi.JSON(strings.NewReader(pythABIJSON))
	if err != nil {
		panic("failed to parse Pyth ABI: " + err.Error())
	}
	pythABI = parsed
}
