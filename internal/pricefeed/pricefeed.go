// Package pricefeed derives a price for a wrapped, yield-bearing token from
// its underlying's Chainlink feed and the token's own exchange rate.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/manoj9april/comet/internal/oracle"
)

// version identifies the aggregator interface revision the derived feed
// reports. Fixed, matching the reference feed contract family.
var version = big.NewInt(1)

// maxInt256 is the largest unsigned value that survives reinterpretation as a
// signed 256-bit integer: 2^255 - 1.
var maxInt256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))

// ErrZeroExchangeRate is returned when the wrapped token reports a zero rate,
// which would otherwise divide by zero.
var ErrZeroExchangeRate = errors.New("pricefeed: zero exchange rate")

// BadDecimalsError is a construction-time failure: the requested output
// precision exceeds what the reference feed can source. The feed only ever
// divides precision down, never invents it.
type BadDecimalsError struct {
	Requested uint8
	Reference uint8
}

func (e *BadDecimalsError) Error() string {
	return fmt.Sprintf("pricefeed: output decimals %d exceed reference feed decimals %d", e.Requested, e.Reference)
}

// InvalidMagnitudeError is a query-time failure: the unsigned exchange rate
// does not fit the positive range of a signed 256-bit integer, so converting
// it would corrupt the sign bit.
type InvalidMagnitudeError struct {
	Value *big.Int
}

func (e *InvalidMagnitudeError) Error() string {
	return fmt.Sprintf("pricefeed: exchange rate %s exceeds max int256", e.Value)
}

// ExchangeRateSource is the wrapped-token side of the computation: the
// token's own precision and the live unwrap rate.
type ExchangeRateSource interface {
	Decimals(ctx context.Context) (uint8, error)
	TokensPerUnderlying(ctx context.Context) (*big.Int, error)
}

// Config declares the two upstream sources and the output the derived feed
// promises.
type Config struct {
	// ReferenceFeed prices the underlying asset in the settlement asset.
	ReferenceFeed oracle.Aggregator

	// WrappedToken supplies the live exchange rate.
	WrappedToken ExchangeRateSource

	// Decimals is the precision the derived feed reports at. Must not
	// exceed the reference feed's own precision.
	Decimals uint8

	// Description identifies the derived pair, e.g. "wstETH / ETH".
	Description string
}

// PriceFeed is a derived aggregator. Construction captures both upstream
// precisions once; after that the instance is immutable and every query is an
// independent pair of live upstream reads. Changing any parameter means
// deploying a new instance.
type PriceFeed struct {
	referenceFeed oracle.Aggregator
	wrappedToken  ExchangeRateSource
	decimals      uint8
	description   string

	// tokenScale is 10^(wrapped token decimals).
	tokenScale *big.Int

	// rescale is 10^(reference decimals - output decimals); the final
	// truncating divisor aligning the answer to the promised precision.
	rescale *big.Int
}

var _ oracle.Aggregator = (*PriceFeed)(nil)

// New builds a derived feed. It reads both upstream decimal precisions
// exactly once and fails with BadDecimalsError if the requested output
// precision cannot be sourced from the reference feed.
func New(ctx context.Context, cfg Config) (*PriceFeed, error) {
	referenceDecimals, err := cfg.ReferenceFeed.Decimals(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Decimals > referenceDecimals {
		return nil, &BadDecimalsError{Requested: cfg.Decimals, Reference: referenceDecimals}
	}

	tokenDecimals, err := cfg.WrappedToken.Decimals(ctx)
	if err != nil {
		return nil, err
	}

	return &PriceFeed{
		referenceFeed: cfg.ReferenceFeed,
		wrappedToken:  cfg.WrappedToken,
		decimals:      cfg.Decimals,
		description:   cfg.Description,
		tokenScale:    pow10(tokenDecimals),
		rescale:       pow10(referenceDecimals - cfg.Decimals),
	}, nil
}

// Decimals returns the output precision fixed at construction.
func (f *PriceFeed) Decimals(ctx context.Context) (uint8, error) {
	return f.decimals, nil
}

// Description returns the derived pair description.
func (f *PriceFeed) Description(ctx context.Context) (string, error) {
	return f.description, nil
}

// Version returns the aggregator interface revision.
func (f *PriceFeed) Version(ctx context.Context) (*big.Int, error) {
	return version, nil
}

// GetRoundData derives a price from the reference feed's observation for
// roundID. The exchange rate is read live at query time, not at the round's
// update time; on a stale round the two data points are intentionally from
// different moments.
func (f *PriceFeed) GetRoundData(ctx context.Context, roundID *big.Int) (oracle.RoundData, error) {
	data, err := f.referenceFeed.GetRoundData(ctx, roundID)
	if err != nil {
		return oracle.RoundData{}, err
	}
	return f.derive(ctx, data)
}

// LatestRoundData derives a price from the reference feed's most recent
// observation.
func (f *PriceFeed) LatestRoundData(ctx context.Context) (oracle.RoundData, error) {
	data, err := f.referenceFeed.LatestRoundData(ctx)
	if err != nil {
		return oracle.RoundData{}, err
	}
	return f.derive(ctx, data)
}

// derive computes the wrapped token's price from the underlying observation
// and the live exchange rate. Both divisions truncate toward zero; rounding
// error is accepted, not corrected. Everything except the answer passes
// through from the reference observation untouched.
func (f *PriceFeed) derive(ctx context.Context, data oracle.RoundData) (oracle.RoundData, error) {
	rate, err := f.wrappedToken.TokensPerUnderlying(ctx)
	if err != nil {
		return oracle.RoundData{}, err
	}

	signedRate, err := signed256(rate)
	if err != nil {
		return oracle.RoundData{}, err
	}
	if signedRate.Sign() == 0 {
		return oracle.RoundData{}, ErrZeroExchangeRate
	}

	answer := new(big.Int).Mul(data.Answer, f.tokenScale)
	answer.Quo(answer, signedRate)
	answer.Quo(answer, f.rescale)

	return oracle.RoundData{
		RoundID:         data.RoundID,
		Answer:          answer,
		StartedAt:       data.StartedAt,
		UpdatedAt:       data.UpdatedAt,
		AnsweredInRound: data.AnsweredInRound,
	}, nil
}

// signed256 reinterprets an unsigned 256-bit value as signed, refusing any
// value whose sign bit would flip.
func signed256(u *big.Int) (*big.Int, error) {
	if u.Cmp(maxInt256) > 0 {
		return nil, &InvalidMagnitudeError{Value: new(big.Int).Set(u)}
	}
	return u, nil
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
