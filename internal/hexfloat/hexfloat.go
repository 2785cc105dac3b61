package hexfloat

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalidToken is returned when a token is neither a hex float nor a decimal number.
var ErrInvalidToken = errors.New("invalid float token")

// IsHex reports whether token carries a hex-float prefix ("&" or "0x").
func IsHex(token string) bool {
	t := strings.TrimSpace(token)
	return strings.HasPrefix(t, "&") || strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X")
}

// HexToFloat decodes an IEEE-754 bit pattern such as "&3f4ccccd" or "0x3f800000".
func HexToFloat(token string) (float32, error) {
	t := strings.TrimSpace(token)
	t = strings.TrimPrefix(t, "&")
	if len(t) > 2 && (t[:2] == "0x" || t[:2] == "0X") {
		t = t[2:]
	}
	if t == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}

	bits, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return math.Float32frombits(uint32(bits)), nil
}

// FloatToHex encodes v as "&" followed by eight lowercase hex digits.
func FloatToHex(v float32) string {
	return fmt.Sprintf("&%08x", math.Float32bits(v))
}

// ParseValueAuto decodes hex-prefixed tokens bitwise and everything else as a
// decimal, accepting a comma as the decimal separator.
func ParseValueAuto(token string) (float32, error) {
	if IsHex(token) {
		return HexToFloat(token)
	}

	t := strings.ReplaceAll(strings.TrimSpace(token), ",", ".")
	f, err := strconv.ParseFloat(t, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return float32(f), nil
}

// DecodeHexFolderName turns a hex-encoded profile folder name back into its
// display text. It returns false when name is not valid hex of UTF-8 text.
func DecodeHexFolderName(name string) (string, bool) {
	if name == "" || len(name)%2 != 0 {
		return "", false
	}
	raw, err := hex.DecodeString(name)
	if err != nil || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}
