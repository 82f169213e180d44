package assets

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AssetConfig {
	return AssetConfig{
		Asset:                     common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0"),
		PriceFeed:                 common.HexToAddress("0x4F67e4d9BD67eFa28236013288737D39AeF48e79"),
		Decimals:                  18,
		BorrowCollateralFactor:    800_000_000_000_000_000, // 0.80
		LiquidateCollateralFactor: 850_000_000_000_000_000, // 0.85
		LiquidationFactor:         950_000_000_000_000_000, // 0.95
		SupplyCap:                 new(big.Int).Mul(big.NewInt(400_000), big.NewInt(1e18)),
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AssetConfig)
	}{
		{name: "typical wrapped staking asset", mutate: func(c *AssetConfig) {}},
		{name: "zero factors and cap", mutate: func(c *AssetConfig) {
			c.BorrowCollateralFactor = 0
			c.LiquidateCollateralFactor = 0
			c.LiquidationFactor = 0
			c.SupplyCap = big.NewInt(0)
		}},
		{name: "factors at full scale", mutate: func(c *AssetConfig) {
			c.BorrowCollateralFactor = FactorScale
			c.LiquidateCollateralFactor = FactorScale
			c.LiquidationFactor = FactorScale
		}},
		{name: "six decimal asset", mutate: func(c *AssetConfig) {
			c.Decimals = 6
			c.SupplyCap = new(big.Int).Mul(big.NewInt(30_000_000), big.NewInt(1e6))
		}},
		{name: "zero decimal asset", mutate: func(c *AssetConfig) {
			c.Decimals = 0
			c.SupplyCap = big.NewInt(12345)
		}},
		{name: "cap at the 64-bit whole-token limit", mutate: func(c *AssetConfig) {
			c.Decimals = 8
			whole := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
			c.SupplyCap = whole.Mul(whole, big.NewInt(1e8))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			packed, err := cfg.Pack()
			require.NoError(t, err)

			got := packed.Unpack()
			assert.Equal(t, cfg, got)
		})
	}
}

func TestPackIsDeterministic(t *testing.T) {
	cfg := validConfig()

	a, err := cfg.Pack()
	require.NoError(t, err)
	b, err := cfg.Pack()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestPackLayoutWidths(t *testing.T) {
	cfg := validConfig()
	packed, err := cfg.Pack()
	require.NoError(t, err)

	// Word A uses bits 0-207, word B bits 0-231; everything above must be
	// zero.
	wordA := new(big.Int).SetBytes(packed.WordA[:])
	wordB := new(big.Int).SetBytes(packed.WordB[:])
	assert.LessOrEqual(t, wordA.BitLen(), 208)
	assert.LessOrEqual(t, wordB.BitLen(), 232)

	// Addresses land in the low 160 bits of each word.
	assert.Equal(t, cfg.Asset, common.BigToAddress(extractAddress(wordA)))
	assert.Equal(t, cfg.PriceFeed, common.BigToAddress(extractAddress(wordB)))
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AssetConfig)
		field  string
	}{
		{name: "zero price feed", mutate: func(c *AssetConfig) {
			c.PriceFeed = common.Address{}
		}, field: "priceFeed"},
		{name: "factor above scale", mutate: func(c *AssetConfig) {
			c.BorrowCollateralFactor = FactorScale + factorDescale
		}, field: "borrowCollateralFactor"},
		{name: "factor below packing granularity", mutate: func(c *AssetConfig) {
			c.LiquidationFactor = 950_000_000_000_000_001
		}, field: "liquidationFactor"},
		{name: "borrow factor above liquidate factor", mutate: func(c *AssetConfig) {
			c.BorrowCollateralFactor = 900_000_000_000_000_000
			c.LiquidateCollateralFactor = 850_000_000_000_000_000
		}, field: "borrowCollateralFactor"},
		{name: "missing supply cap", mutate: func(c *AssetConfig) {
			c.SupplyCap = nil
		}, field: "supplyCap"},
		{name: "negative supply cap", mutate: func(c *AssetConfig) {
			c.SupplyCap = big.NewInt(-1)
		}, field: "supplyCap"},
		{name: "fractional supply cap", mutate: func(c *AssetConfig) {
			c.SupplyCap = big.NewInt(1e18 + 1)
		}, field: "supplyCap"},
		{name: "supply cap beyond 64 bits of whole tokens", mutate: func(c *AssetConfig) {
			whole := new(big.Int).Lsh(big.NewInt(1), 64)
			c.SupplyCap = whole.Mul(whole, big.NewInt(1e18))
		}, field: "supplyCap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)

			// Pack must refuse the same configuration, never clamp it.
			_, err = cfg.Pack()
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "assets.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("valid file", func(t *testing.T) {
		path := writeFile(t, `[
			{
				"asset": "0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0",
				"priceFeed": "0x4F67e4d9BD67eFa28236013288737D39AeF48e79",
				"decimals": 18,
				"borrowCollateralFactor": 800000000000000000,
				"liquidateCollateralFactor": 850000000000000000,
				"liquidationFactor": 950000000000000000,
				"supplyCap": 400000000000000000000000
			}
		]`)

		configs, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, configs, 1)
		assert.Equal(t, validConfig(), configs[0])
	})

	t.Run("invalid entry fails fast", func(t *testing.T) {
		path := writeFile(t, `[
			{
				"asset": "0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0",
				"priceFeed": "0x4F67e4d9BD67eFa28236013288737D39AeF48e79",
				"decimals": 18,
				"borrowCollateralFactor": 2000000000000000000,
				"liquidateCollateralFactor": 850000000000000000,
				"liquidationFactor": 950000000000000000,
				"supplyCap": 0
			}
		]`)

		_, err := LoadFile(path)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("duplicate asset rejected", func(t *testing.T) {
		entry := `{
			"asset": "0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0",
			"priceFeed": "0x4F67e4d9BD67eFa28236013288737D39AeF48e79",
			"decimals": 18,
			"borrowCollateralFactor": 800000000000000000,
			"liquidateCollateralFactor": 850000000000000000,
			"liquidationFactor": 950000000000000000,
			"supplyCap": 0
		}`
		path := writeFile(t, "["+entry+","+entry+"]")

		_, err := LoadFile(path)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "asset", cfgErr.Field)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}
