// Package oracle defines the round-data model shared by primary Chainlink
// feeds and feeds derived from them.
package oracle

import (
	"context"
	"math/big"
)

// RoundData is a single price observation as reported by an aggregator.
// All fields stay *big.Int so an 80-bit round id or 256-bit timestamp passes
// through bit-identically; round ids are opaque and never used arithmetically.
type RoundData struct {
	RoundID         *big.Int `json:"roundId"`
	Answer          *big.Int `json:"answer"`
	StartedAt       *big.Int `json:"startedAt"`
	UpdatedAt       *big.Int `json:"updatedAt"`
	AnsweredInRound *big.Int `json:"answeredInRound"`
}

// Aggregator is the interface every price feed exposes, primary or derived.
// Callers written against it cannot and should not distinguish the two.
type Aggregator interface {
	// Decimals returns the precision the feed reports answers at.
	Decimals(ctx context.Context) (uint8, error)

	// Description identifies the pair the feed prices.
	Description(ctx context.Context) (string, error)

	// Version identifies the interface revision.
	Version(ctx context.Context) (*big.Int, error)

	// GetRoundData returns the observation for a specific round.
	GetRoundData(ctx context.Context, roundID *big.Int) (RoundData, error)

	// LatestRoundData returns the most recent observation.
	LatestRoundData(ctx context.Context) (RoundData, error)
}
