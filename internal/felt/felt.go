// Package felt normalizes the heterogeneous value shapes a Starknet RPC
// surface can hand back: decimal strings, 0x-hex strings, big integers and
// plain machine integers all stand for the same field element.
package felt

import (
	"fmt"
	"math/big"
	"strings"
)

// NormalizeAddress renders v as a 0x-prefixed lowercase hex string. Inputs
// may be decimal strings, hex strings (any case, with or without prefix) or
// integer types. On conversion failure the stringified input is returned
// unchanged; equality checks against it then simply fail closed.
func NormalizeAddress(v any) string {
	b, ok := ParseBig(v)
	if !ok {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return "0x" + b.Text(16)
}

// NormalizeInt returns v as a native int. Values outside the int range, or
// values that do not parse, come back as 0.
func NormalizeInt(v any) int {
	b, ok := ParseBig(v)
	if !ok || !b.IsInt64() {
		return 0
	}
	n := b.Int64()
	if n < 0 {
		return 0
	}
	return int(n)
}

// NormalizeUint64 is NormalizeInt for identifiers that may exceed int32 on
// 32-bit builds. The second return reports whether parsing succeeded.
func NormalizeUint64(v any) (uint64, bool) {
	b, ok := ParseBig(v)
	if !ok || !b.IsUint64() {
		return 0, false
	}
	return b.Uint64(), true
}

// ParseBig converts the supported input shapes into an arbitrary-precision
// integer. Strings starting with 0x/0X parse as hex, all other strings as
// decimal.
func ParseBig(v any) (*big.Int, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case *big.Int:
		if t == nil {
			return nil, false
		}
		return new(big.Int).Set(t), true
	case big.Int:
		return new(big.Int).Set(&t), true
	case string:
		return parseBigString(t)
	case int:
		return big.NewInt(int64(t)), true
	case int64:
		return big.NewInt(t), true
	case uint16:
		return big.NewInt(int64(t)), true
	case uint32:
		return big.NewInt(int64(t)), true
	case uint64:
		return new(big.Int).SetUint64(t), true
	case float64:
		// JSON numbers decode as float64; only integral values are felts.
		if t != float64(int64(t)) {
			return nil, false
		}
		return big.NewInt(int64(t)), true
	default:
		return parseBigString(fmt.Sprint(v))
	}
}

func parseBigString(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
		if s == "" {
			return nil, false
		}
	}
	b, ok := new(big.Int).SetString(s, base)
	if !ok || b.Sign() < 0 {
		return nil, false
	}
	return b, true
}

// IsZero reports whether the normalized form of v is the zero address.
func IsZero(v any) bool {
	b, ok := ParseBig(v)
	return ok && b.Sign() == 0
}
