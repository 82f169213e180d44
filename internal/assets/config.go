// Package assets defines the collateral asset configuration schema: the
// unpacked form configuration tooling exchanges, and the two-word packed form
// the protocol persists.
package assets

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	// FactorScale is the fixed-point scale for collateral factors: a factor
	// of 1.0 is stored as 1e18.
	FactorScale = uint64(1e18)

	// factorDescale reduces a factor to its 16-bit packed form. Valid
	// factors must be multiples of it; packing never truncates silently.
	factorDescale = uint64(1e14)
)

// ConfigError reports an invalid asset configuration. Raised at load time,
// never at query time; the offending configuration must be corrected, values
// are never clamped.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("asset config: %s %s", e.Field, e.Reason)
}

// AssetConfig declares one collateral asset: its identity, price source,
// precision and risk parameters. This is the interchange form used by
// governance and deploy tooling; only the packed form is persisted.
type AssetConfig struct {
	// Asset is the collateral token address.
	Asset common.Address `json:"asset"`

	// PriceFeed is the aggregator pricing this asset, primary or derived.
	PriceFeed common.Address `json:"priceFeed"`

	// Decimals is the asset's own precision.
	Decimals uint8 `json:"decimals"`

	// BorrowCollateralFactor bounds borrowing capacity per unit of
	// collateral, scaled by FactorScale.
	BorrowCollateralFactor uint64 `json:"borrowCollateralFactor"`

	// LiquidateCollateralFactor is the factor at which a position becomes
	// liquidatable, scaled by FactorScale.
	LiquidateCollateralFactor uint64 `json:"liquidateCollateralFactor"`

	// LiquidationFactor is the fraction of collateral value credited
	// during absorption, scaled by FactorScale.
	LiquidationFactor uint64 `json:"liquidationFactor"`

	// SupplyCap is the maximum aggregate deposit, in asset base units.
	SupplyCap *big.Int `json:"supplyCap"`
}

// PackedAssetConfig is AssetConfig encoded into two 256-bit storage words.
//
// Word A: asset address (bits 0-159), borrow collateral factor (160-175),
// liquidate collateral factor (176-191), liquidation factor (192-207), each
// factor descaled to 16 bits.
// Word B: price feed address (bits 0-159), decimals (160-167), supply cap in
// whole tokens (168-231).
type PackedAssetConfig struct {
	WordA [32]byte
	WordB [32]byte
}

// Validate checks an asset configuration, failing fast on the first
// violation.
func (c AssetConfig) Validate() error {
	if c.PriceFeed == (common.Address{}) {
		return &ConfigError{Field: "priceFeed", Reason: "is the zero address"}
	}
	for _, f := range []struct {
		name  string
		value uint64
	}{
		{"borrowCollateralFactor", c.BorrowCollateralFactor},
		{"liquidateCollateralFactor", c.LiquidateCollateralFactor},
		{"liquidationFactor", c.LiquidationFactor},
	} {
		if f.value > FactorScale {
			return &ConfigError{Field: f.name, Reason: fmt.Sprintf("%d exceeds factor scale %d", f.value, FactorScale)}
		}
		if f.value%factorDescale != 0 {
			return &ConfigError{Field: f.name, Reason: fmt.Sprintf("%d is not a multiple of %d", f.value, factorDescale)}
		}
	}
	if c.BorrowCollateralFactor > c.LiquidateCollateralFactor {
		return &ConfigError{Field: "borrowCollateralFactor", Reason: "exceeds liquidateCollateralFactor"}
	}
	if c.SupplyCap == nil || c.SupplyCap.Sign() < 0 {
		return &ConfigError{Field: "supplyCap", Reason: "is missing or negative"}
	}
	unit := pow10(c.Decimals)
	if new(big.Int).Mod(c.SupplyCap, unit).Sign() != 0 {
		return &ConfigError{Field: "supplyCap", Reason: "is not a whole number of tokens"}
	}
	if whole := new(big.Int).Quo(c.SupplyCap, unit); whole.BitLen() > 64 {
		return &ConfigError{Field: "supplyCap", Reason: "does not fit 64 bits of whole tokens"}
	}
	return nil
}

// Pack encodes the configuration into its two-word storage form. The
// configuration must be valid; Pack never rounds a value to make it fit.
func (c AssetConfig) Pack() (PackedAssetConfig, error) {
	if err := c.Validate(); err != nil {
		return PackedAssetConfig{}, err
	}

	wordA := new(big.Int).SetBytes(c.Asset.Bytes())
	wordA.Or(wordA, shiftedUint(c.BorrowCollateralFactor/factorDescale, 160))
	wordA.Or(wordA, shiftedUint(c.LiquidateCollateralFactor/factorDescale, 176))
	wordA.Or(wordA, shiftedUint(c.LiquidationFactor/factorDescale, 192))

	wholeCap := new(big.Int).Quo(c.SupplyCap, pow10(c.Decimals))
	wordB := new(big.Int).SetBytes(c.PriceFeed.Bytes())
	wordB.Or(wordB, shiftedUint(uint64(c.Decimals), 160))
	wordB.Or(wordB, new(big.Int).Lsh(wholeCap, 168))

	var packed PackedAssetConfig
	wordA.FillBytes(packed.WordA[:])
	wordB.FillBytes(packed.WordB[:])
	return packed, nil
}

// Unpack decodes the two-word storage form back into an AssetConfig. For any
// configuration Pack accepts, Unpack returns it exactly.
func (p PackedAssetConfig) Unpack() AssetConfig {
	wordA := new(big.Int).SetBytes(p.WordA[:])
	wordB := new(big.Int).SetBytes(p.WordB[:])

	decimals := uint8(extractUint(wordB, 160, 8))
	wholeCap := new(big.Int).Rsh(wordB, 168)

	return AssetConfig{
		Asset:                     common.BigToAddress(extractAddress(wordA)),
		PriceFeed:                 common.BigToAddress(extractAddress(wordB)),
		Decimals:                  decimals,
		BorrowCollateralFactor:    extractUint(wordA, 160, 16) * factorDescale,
		LiquidateCollateralFactor: extractUint(wordA, 176, 16) * factorDescale,
		LiquidationFactor:         extractUint(wordA, 192, 16) * factorDescale,
		SupplyCap:                 wholeCap.Mul(wholeCap, pow10(decimals)),
	}
}

// LoadFile reads and validates a JSON array of asset configurations, the
// interchange format produced by governance tooling.
func LoadFile(path string) ([]AssetConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset config %s: %w", path, err)
	}

	var configs []AssetConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse asset config %s: %w", path, err)
	}

	seen := make(map[common.Address]bool, len(configs))
	for i, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("asset %d (%s): %w", i, c.Asset.Hex(), err)
		}
		if seen[c.Asset] {
			return nil, &ConfigError{Field: "asset", Reason: fmt.Sprintf("%s configured twice", c.Asset.Hex())}
		}
		seen[c.Asset] = true
	}

	logrus.Infof("Loaded %d asset configurations from %s", len(configs), path)
	return configs, nil
}

var addressMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))

func extractAddress(word *big.Int) *big.Int {
	return new(big.Int).And(word, addressMask)
}

func extractUint(word *big.Int, offset, width uint) uint64 {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), width), big.NewInt(1))
	v := new(big.Int).Rsh(word, offset)
	return v.And(v, mask).Uint64()
}

func shiftedUint(v uint64, offset uint) *big.Int {
	return new(big.Int).Lsh(new(big.Int).SetUint64(v), offset)
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
