package eth

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// EtherDecimals is the exponent between wei and ether.
const EtherDecimals = 18

var (
	addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func IsValidAddress(iaddress interface{}) bool {
	switch v := iaddress.(type) {
	case string:
		return addressRegex.MatchString(v)
	case common.Address:
		return addressRegex.MatchString(v.Hex())
	default:
		return false
	}
}

// ParseAmount converts user-entered integer text into an uint256 call argument.
// No unit conversion happens: "5" is 5 base units. Decimal text and 0x/0o/0b
// prefixed text are accepted, surrounding whitespace is ignored.
func ParseAmount(text string) (*big.Int, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, errors.New("empty amount provided")
	}

	base := 10
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			s = s[2:]
			if s[0] == '+' || s[0] == '-' {
				return nil, errors.Errorf("invalid amount provided: %q", text)
			}
		}
	}

	value, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, errors.Errorf("invalid amount provided: %q", text)
	}
	if value.Sign() < 0 {
		return nil, errors.Errorf("negative amount provided: %q", text)
	}
	if value.Cmp(maxUint256) > 0 {
		return nil, errors.Errorf("amount does not fit into uint256: %q", text)
	}
	return value, nil
}

// ToDecimal shifts a base-unit integer by the given exponent.
func ToDecimal(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

// FormatUnits renders a base-unit integer as a human-readable decimal string
// that always carries a fractional part, e.g. 1500000000000000000 -> "1.5"
// and 0 -> "0.0".
func FormatUnits(value *big.Int, decimals int32) string {
	s := ToDecimal(value, decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatEther is FormatUnits with the 18 decimals of ether.
func FormatEther(value *big.Int) string {
	return FormatUnits(value, EtherDecimals)
}
