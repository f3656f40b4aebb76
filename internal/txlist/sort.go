package txlist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey is the column transactions are ordered by.
type SortKey int

const (
	SortIndex SortKey = iota
	SortKind
	SortFrom
	SortTo
	SortAmount
	SortTime
)

var sortKeyNames = []string{"index", "kind", "from", "to", "amount", "time"}

// String returns the key name used on the command line.
func (k SortKey) String() string {
	if int(k) < len(sortKeyNames) {
		return sortKeyNames[k]
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

// ParseSortKey is the inverse of SortKey.String.
func ParseSortKey(s string) (SortKey, error) {
	i := slices.Index(sortKeyNames, strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return 0, fmt.Errorf("unknown sort key %q (want one of %s)", s, strings.Join(sortKeyNames, ", "))
	}
	return SortKey(i), nil
}

// Sort orders txs in place. The sort is stable, so records with equal keys
// keep their relative order in both directions. Amounts compare as integers.
func Sort(txs []Transaction, key SortKey, desc bool, names *NameBook) {
	compare := comparator(key, names)
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func comparator(key SortKey, names *NameBook) func(a, b Transaction) int {
	switch key {
	case SortKind:
		return func(a, b Transaction) int { return strings.Compare(a.Kind.String(), b.Kind.String()) }
	case SortFrom:
		return func(a, b Transaction) int { return strings.Compare(names.Name(a.From), names.Name(b.From)) }
	case SortTo:
		return func(a, b Transaction) int { return strings.Compare(names.Name(a.To), names.Name(b.To)) }
	case SortAmount:
		return func(a, b Transaction) int { return cmp.Compare(a.Amount, b.Amount) }
	case SortTime:
		return func(a, b Transaction) int { return a.Time.Compare(b.Time) }
	default:
		return func(a, b Transaction) int { return cmp.Compare(a.Index, b.Index) }
	}
}
