package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// Subaccount distinguishes accounts owned by the same principal.
type Subaccount [32]byte

// IsZero reports whether s is the default subaccount.
func (s Subaccount) IsZero() bool {
	return s == Subaccount{}
}

// SubaccountFromPrincipal encodes p as [len, bytes..., 0...]. The conversion
// service credits top-ups to the instance named by this subaccount.
func SubaccountFromPrincipal(p Principal) Subaccount {
	var s Subaccount
	raw := p.Bytes()
	s[0] = byte(len(raw))
	copy(s[1:], raw)
	return s
}

// SubaccountFromUint64 stores n big-endian in the last eight bytes.
func SubaccountFromUint64(n uint64) Subaccount {
	var s Subaccount
	binary.BigEndian.PutUint64(s[24:], n)
	return s
}

// Account is an owner plus optional subaccount.
type Account struct {
	Owner      Principal
	Subaccount *Subaccount
}

// NewAccount builds an account, normalising a zero subaccount to nil.
func NewAccount(owner Principal, sub *Subaccount) Account {
	if sub != nil && sub.IsZero() {
		sub = nil
	}
	if sub != nil {
		cp := *sub
		sub = &cp
	}
	return Account{Owner: owner, Subaccount: sub}
}

// Equal compares owner and effective subaccount.
func (a Account) Equal(o Account) bool {
	return a.Owner == o.Owner && a.effectiveSubaccount() == o.effectiveSubaccount()
}

func (a Account) effectiveSubaccount() Subaccount {
	if a.Subaccount == nil {
		return Subaccount{}
	}
	return *a.Subaccount
}

// String returns the textual account form: the bare principal for the
// default subaccount, otherwise "<principal>-<checksum>.<hex>".
func (a Account) String() string {
	sub := a.effectiveSubaccount()
	if sub.IsZero() {
		return a.Owner.String()
	}
	hexSub := strings.TrimLeft(hex.EncodeToString(sub[:]), "0")
	return a.Owner.String() + "-" + accountChecksum(a.Owner, sub) + "." + hexSub
}

// MarshalText implements encoding.TextMarshaler.
func (a Account) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Account) UnmarshalText(text []byte) error {
	parsed, err := ParseAccount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func accountChecksum(owner Principal, sub Subaccount) string {
	buf := append(owner.Bytes(), sub[:]...)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(buf))
	return strings.ToLower(encoding.EncodeToString(sum[:]))
}

// ParseAccount accepts either a bare principal or the extended
// principal+subaccount form, verifying the checksum of the latter.
func ParseAccount(s string) (Account, error) {
	s = strings.TrimSpace(s)
	head, hexSub, extended := strings.Cut(s, ".")
	if !extended {
		p, err := ParsePrincipal(s)
		if err != nil {
			return Account{}, err
		}
		return Account{Owner: p}, nil
	}

	dash := strings.LastIndex(head, "-")
	if dash < 0 {
		return Account{}, fmt.Errorf("invalid account %q: missing checksum", s)
	}
	ownerText, checksum := head[:dash], head[dash+1:]
	owner, err := ParsePrincipal(ownerText)
	if err != nil {
		return Account{}, fmt.Errorf("invalid account %q: %w", s, err)
	}

	if hexSub == "" || strings.HasPrefix(hexSub, "0") {
		return Account{}, fmt.Errorf("invalid account %q: subaccount must be non-empty without leading zeros", s)
	}
	if len(hexSub) > 64 {
		return Account{}, fmt.Errorf("invalid account %q: subaccount too long", s)
	}
	raw, err := hex.DecodeString(strings.Repeat("0", 64-len(hexSub)) + hexSub)
	if err != nil {
		return Account{}, fmt.Errorf("invalid account %q: %w", s, err)
	}
	var sub Subaccount
	copy(sub[:], raw)

	if accountChecksum(owner, sub) != checksum {
		return Account{}, fmt.Errorf("invalid account %q: %w", s, ErrBadChecksum)
	}
	return NewAccount(owner, &sub), nil
}

// MustParseAccount is ParseAccount for constants and tests.
func MustParseAccount(s string) Account {
	a, err := ParseAccount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsAccountText reports whether s looks like the extended account form.
func IsAccountText(s string) bool {
	_, err := ParseAccount(s)
	return err == nil && strings.Contains(s, ".")
}

var errNoMemo = errors.New("memo is empty")

// Memo is an opaque transfer tag of at most 32 bytes.
type Memo []byte

// TopUpMemo tags a transfer to the conversion service as a cycles top-up
// ("TPUP" as a little-endian u64).
func TopUpMemo() Memo {
	m := make(Memo, 8)
	binary.LittleEndian.PutUint64(m, 0x50555054)
	return m
}

// MemoFromUint64 encodes n big-endian.
func MemoFromUint64(n uint64) Memo {
	m := make(Memo, 8)
	binary.BigEndian.PutUint64(m, n)
	return m
}

// Uint64 decodes an eight-byte big-endian memo.
func (m Memo) Uint64() (uint64, error) {
	if len(m) == 0 {
		return 0, errNoMemo
	}
	if len(m) != 8 {
		return 0, fmt.Errorf("memo has %d bytes, want 8", len(m))
	}
	return binary.BigEndian.Uint64(m), nil
}

// String renders the memo as hex.
func (m Memo) String() string {
	return hex.EncodeToString(m)
}
