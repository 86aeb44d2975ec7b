package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0x9B69E147c2154873E23F4EbaEE71592E610af0F6"))
	assert.True(t, IsValidAddress(common.HexToAddress("0x01")))
	assert.False(t, IsValidAddress("0x9B69E147c2154873E23F4EbaEE71592E610af0F"))
	assert.False(t, IsValidAddress("9B69E147c2154873E23F4EbaEE71592E610af0F6"))
	assert.False(t, IsValidAddress("0xZZ69E147c2154873E23F4EbaEE71592E610af0F6"))
	assert.False(t, IsValidAddress(42))
}

func TestParseAmount(t *testing.T) {
	maxText := "115792089237316195423570985008687907853269984665640564039457584007913129639935"

	tests := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{in: "5", expected: "5"},
		{in: " 1000 ", expected: "1000"},
		{in: "0", expected: "0"},
		{in: "0x10", expected: "16"},
		{in: "0X1f", expected: "31"},
		{in: "0o17", expected: "15"},
		{in: "0b101", expected: "5"},
		{in: maxText, expected: maxText},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "0x-1", wantErr: true},
		{in: "0x", wantErr: true},
		{in: "1e18", wantErr: true},
		{in: "115792089237316195423570985008687907853269984665640564039457584007913129639936", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			value, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value.String())
		})
	}
}

func TestFormatEther(t *testing.T) {
	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	assert.Equal(t, "0.0", FormatEther(big.NewInt(0)))
	assert.Equal(t, "0.0", FormatEther(nil))
	assert.Equal(t, "1.0", FormatEther(oneEther))
	assert.Equal(t, "1.5", FormatEther(big.NewInt(1_500_000_000_000_000_000)))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	assert.Equal(t, "12.0", FormatEther(new(big.Int).Mul(oneEther, big.NewInt(12))))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "12.345", FormatUnits(big.NewInt(12345), 3))
	assert.Equal(t, "7.0", FormatUnits(big.NewInt(7), 0))
}
