// Package ledger defines the token, principal and account types shared by
// stakehut, together with the interfaces of the remote ledger, factory,
// conversion and manager services it talks to.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Decimals is the number of fractional digits of one token.
const Decimals = 8

// Tokens is an amount in e8s (1 token = 100_000_000 e8s).
type Tokens uint64

// E8sPerToken is the number of e8s in one whole token.
const E8sPerToken Tokens = 100_000_000

// MaxTokens is the largest representable amount.
const MaxTokens Tokens = math.MaxUint64

var (
	ErrEmptyAmount    = errors.New("amount is empty")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrAmountOverflow = errors.New("amount too large")
	ErrTooManyDigits  = fmt.Errorf("amount has more than %d decimal places", Decimals)
)

// TokensFromWhole returns n whole tokens.
func TokensFromWhole(n uint64) Tokens {
	return Tokens(n) * E8sPerToken
}

// E8s returns the raw e8s value.
func (t Tokens) E8s() uint64 {
	return uint64(t)
}

// String renders t with up to eight decimals, keeping at least two.
func (t Tokens) String() string {
	whole := uint64(t) / uint64(E8sPerToken)
	frac := fmt.Sprintf("%08d", uint64(t)%uint64(E8sPerToken))
	frac = strings.TrimRight(frac, "0")
	for len(frac) < 2 {
		frac += "0"
	}
	return strconv.FormatUint(whole, 10) + "." + frac
}

// Add returns t+o, saturating at MaxTokens instead of wrapping.
func (t Tokens) Add(o Tokens) Tokens {
	sum, carry := bits.Add64(uint64(t), uint64(o), 0)
	if carry != 0 {
		return MaxTokens
	}
	return Tokens(sum)
}

// Sub returns t-o, or zero when o exceeds t.
func (t Tokens) Sub(o Tokens) Tokens {
	if o > t {
		return 0
	}
	return t - o
}

// ParseTokens parses a decimal token amount such as "1", "0.5" or "12.00000001".
func ParseTokens(s string) (Tokens, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return 0, ErrEmptyAmount
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")

	wholePart, fracPart, hasDot := strings.Cut(s, ".")
	if wholePart == "" && (!hasDot || fracPart == "") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(fracPart) > Decimals {
		return 0, ErrTooManyDigits
	}

	var whole uint64
	if wholePart != "" {
		w, err := strconv.ParseUint(wholePart, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, ErrAmountOverflow
			}
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		whole = w
	}

	var frac uint64
	if fracPart != "" {
		padded := fracPart + strings.Repeat("0", Decimals-len(fracPart))
		f, err := strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		frac = f
	}

	hi, lo := bits.Mul64(whole, uint64(E8sPerToken))
	if hi != 0 {
		return 0, ErrAmountOverflow
	}
	sum, carry := bits.Add64(lo, frac, 0)
	if carry != 0 {
		return 0, ErrAmountOverflow
	}
	return Tokens(sum), nil
}

// MustParseTokens is ParseTokens for constants and tests.
func MustParseTokens(s string) Tokens {
	t, err := ParseTokens(s)
	if err != nil {
		panic(err)
	}
	return t
}

// MarshalText implements encoding.TextMarshaler.
func (t Tokens) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tokens) UnmarshalText(text []byte) error {
	v, err := ParseTokens(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
