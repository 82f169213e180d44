// Package token provides the on-chain exchange-rate source for a wrapped,
// yield-bearing token.
package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/manoj9april/comet/internal/chain"
)

// Token reads a wrapped token contract: its own decimal precision and the
// current exchange rate against its unwrapped underlying.
type Token struct {
	caller  chain.Caller
	address common.Address
}

// New creates a client for the wrapped token at the given address.
func New(caller chain.Caller, address common.Address) *Token {
	return &Token{
		caller:  caller,
		address: address,
	}
}

// Address returns the on-chain address of the token.
func (t *Token) Address() common.Address {
	return t.address
}

// Decimals returns the wrapped token's own precision.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	res, err := t.caller.Call(ctx, t.address, nil, chain.WrappedTokenABI, "decimals")
	if err != nil {
		return 0, err
	}
	return res[0].(uint8), nil
}

// TokensPerUnderlying returns how many wrapped token units one unit of the
// underlying currently converts to, scaled by the underlying's decimals.
// Always a live read of the current rate.
func (t *Token) TokensPerUnderlying(ctx context.Context) (*big.Int, error) {
	res, err := t.caller.Call(ctx, t.address, nil, chain.WrappedTokenABI, "tokensPerUnderlying")
	if err != nil {
		return nil, err
	}
	return res[0].(*big.Int), nil
}
