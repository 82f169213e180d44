package oracle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/manoj9april/comet/internal/chain"
)

// Feed reads a deployed Chainlink aggregator. It is the primary-oracle
// implementation of Aggregator; every read goes to the chain, nothing is
// cached.
type Feed struct {
	caller  chain.Caller
	address common.Address
	abi     abi.ABI
}

// NewFeed creates a client for the aggregator at the given address.
func NewFeed(caller chain.Caller, address common.Address) *Feed {
	return &Feed{
		caller:  caller,
		address: address,
		abi:     chain.AggregatorABI,
	}
}

// Address returns the on-chain address of the aggregator.
func (f *Feed) Address() common.Address {
	return f.address
}

// Decimals returns the feed's reporting precision.
func (f *Feed) Decimals(ctx context.Context) (uint8, error) {
	res, err := f.caller.Call(ctx, f.address, nil, f.abi, "decimals")
	if err != nil {
		return 0, err
	}
	return res[0].(uint8), nil
}

// Description returns the feed's pair description.
func (f *Feed) Description(ctx context.Context) (string, error) {
	res, err := f.caller.Call(ctx, f.address, nil, f.abi, "description")
	if err != nil {
		return "", err
	}
	return res[0].(string), nil
}

// Version returns the feed's interface revision.
func (f *Feed) Version(ctx context.Context) (*big.Int, error) {
	res, err := f.caller.Call(ctx, f.address, nil, f.abi, "version")
	if err != nil {
		return nil, err
	}
	return res[0].(*big.Int), nil
}

// GetRoundData returns the observation recorded for roundID.
func (f *Feed) GetRoundData(ctx context.Context, roundID *big.Int) (RoundData, error) {
	res, err := f.caller.Call(ctx, f.address, nil, f.abi, "getRoundData", roundID)
	if err != nil {
		return RoundData{}, err
	}
	return toRoundData(res)
}

// LatestRoundData returns the most recent observation.
func (f *Feed) LatestRoundData(ctx context.Context) (RoundData, error) {
	res, err := f.caller.Call(ctx, f.address, nil, f.abi, "latestRoundData")
	if err != nil {
		return RoundData{}, err
	}
	return toRoundData(res)
}

func toRoundData(res []interface{}) (RoundData, error) {
	if len(res) != 5 {
		return RoundData{}, fmt.Errorf("unexpected round data arity: %d", len(res))
	}
	return RoundData{
		RoundID:         res[0].(*big.Int),
		Answer:          res[1].(*big.Int),
		StartedAt:       res[2].(*big.Int),
		UpdatedAt:       res[3].(*big.Int),
		AnsweredInRound: res[4].(*big.Int),
	}, nil
}
