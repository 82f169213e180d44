package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// AggregatorABI is the Chainlink aggregator interface consumed by the
// reference feed client and re-exposed by the derived feed.
var AggregatorABI abi.ABI

var aggregatorABI = `[{"type":"function","name":"decimals","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint8"}]},{"type":"function","name":"description","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"string"}]},{"type":"function","name":"version","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint256"}]},{"type":"function","name":"getRoundData","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"uint80","name":"_roundId"}],"outputs":[{"type":"uint80","name":"roundId"},{"type":"int256","name":"answer"},{"type":"uint256","name":"startedAt"},{"type":"uint256","name":"updatedAt"},{"type":"uint80","name":"answeredInRound"}]},{"type":"function","name":"latestRoundData","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint80","name":"roundId"},{"type":"int256","name":"answer"},{"type":"uint256","name":"startedAt"},{"type":"uint256","name":"updatedAt"},{"type":"uint80","name":"answeredInRound"}]}]`

// WrappedTokenABI covers the wrapped-token views the exchange-rate source
// needs: the token's own precision and the current unwrap rate.
var WrappedTokenABI abi.ABI

var wrappedTokenABI = `[{"type":"function","name":"decimals","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint8"}]},{"type":"function","name":"tokensPerUnderlying","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint256"}]}]`

func init() {
	parsed, err := abi.JSON(strings.NewReader(aggregatorABI))
	if err != nil {
		panic("failed to parse aggregator abi")
	}
	AggregatorABI = parsed

	parsed, err = abi.JSON(strings.NewReader(wrappedTokenABI))
	if err != nil {
		panic("failed to parse wrapped token abi")
	}
	WrappedTokenABI = parsed
}
