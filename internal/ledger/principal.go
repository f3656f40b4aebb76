package ledger

import (
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// MaxPrincipalLen is the longest raw principal accepted.
const MaxPrincipalLen = 29

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

var ErrBadChecksum = errors.New("checksum mismatch")

// Principal is an opaque identity on the network. The zero value is the
// management principal ("aaaaa-aa").
type Principal struct {
	raw string
}

// AnonymousPrincipal is the identity of unauthenticated callers.
var AnonymousPrincipal = PrincipalFromBytes([]byte{0x04})

// PrincipalFromBytes wraps raw principal bytes.
func PrincipalFromBytes(b []byte) Principal {
	return Principal{raw: string(b)}
}

// Bytes returns a copy of the raw principal bytes.
func (p Principal) Bytes() []byte {
	return []byte(p.raw)
}

// Len returns the raw length in bytes.
func (p Principal) Len() int {
	return len(p.raw)
}

// String returns the dash-grouped textual form.
func (p Principal) String() string {
	buf := make([]byte, 4+len(p.raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE([]byte(p.raw)))
	copy(buf[4:], p.raw)
	enc := strings.ToLower(encoding.EncodeToString(buf))

	var b strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(enc[i:min(i+5, len(enc))])
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePrincipal decodes the textual form and verifies its checksum.
func ParsePrincipal(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Principal{}, errors.New("empty principal")
	}
	compact := strings.ToUpper(strings.ReplaceAll(s, "-", ""))
	raw, err := encoding.DecodeString(compact)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid principal %q: %w", s, err)
	}
	if len(raw) < 4 {
		return Principal{}, fmt.Errorf("invalid principal %q: too short", s)
	}
	if len(raw)-4 > MaxPrincipalLen {
		return Principal{}, fmt.Errorf("invalid principal %q: too long", s)
	}
	p := PrincipalFromBytes(raw[4:])
	if binary.BigEndian.Uint32(raw[:4]) != crc32.ChecksumIEEE(raw[4:]) {
		return Principal{}, fmt.Errorf("invalid principal %q: %w", s, ErrBadChecksum)
	}
	if p.String() != strings.ToLower(s) {
		return Principal{}, fmt.Errorf("invalid principal %q: not in canonical form", s)
	}
	return p, nil
}

// MustParsePrincipal is ParsePrincipal for constants and tests.
func MustParsePrincipal(s string) Principal {
	p, err := ParsePrincipal(s)
	if err != nil {
		panic(err)
	}
	return p
}
