package main

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundID(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]interface{}
		want    *big.Int
		wantErr bool
	}{
		{name: "absent", data: map[string]interface{}{}, want: nil},
		{name: "explicit null", data: map[string]interface{}{"roundId": nil}, want: nil},
		{name: "string", data: map[string]interface{}{"roundId": "92233720368547799017"}, want: mustBig("92233720368547799017")},
		{name: "number", data: map[string]interface{}{"roundId": json.Number("100")}, want: big.NewInt(100)},
		{name: "negative", data: map[string]interface{}{"roundId": "-1"}, wantErr: true},
		{name: "not a number", data: map[string]interface{}{"roundId": "latest"}, wantErr: true},
		{name: "wrong type", data: map[string]interface{}{"roundId": true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRoundID(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test constant " + s)
	}
	return v
}
