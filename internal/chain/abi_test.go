package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorABI(t *testing.T) {
	for _, method := range []string{"decimals", "description", "version", "latestRoundData"} {
		m, ok := AggregatorABI.Methods[method]
		require.True(t, ok, "missing method %s", method)
		assert.Empty(t, m.Inputs, "%s takes no arguments", method)
	}

	getRound, ok := AggregatorABI.Methods["getRoundData"]
	require.True(t, ok)
	require.Len(t, getRound.Inputs, 1)
	assert.Equal(t, "uint80", getRound.Inputs[0].Type.String())
	require.Len(t, getRound.Outputs, 5)
	assert.Equal(t, "int256", getRound.Outputs[1].Type.String())
}

func TestAggregatorABIRoundTrip(t *testing.T) {
	// getRoundData calldata must carry the round id unmodified.
	roundID, _ := new(big.Int).SetString("92233720368547799017", 10)
	data, err := AggregatorABI.Pack("getRoundData", roundID)
	require.NoError(t, err)
	require.Len(t, data, 4+32)

	args, err := AggregatorABI.Methods["getRoundData"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, roundID, args[0])
}

func TestWrappedTokenABI(t *testing.T) {
	for _, method := range []string{"decimals", "tokensPerUnderlying"} {
		m, ok := WrappedTokenABI.Methods[method]
		require.True(t, ok, "missing method %s", method)
		assert.Empty(t, m.Inputs)
		require.Len(t, m.Outputs, 1)
	}
	assert.Equal(t, "uint256", WrappedTokenABI.Methods["tokensPerUnderlying"].Outputs[0].Type.String())
}
