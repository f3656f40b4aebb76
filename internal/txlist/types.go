// Package txlist retrieves ledger transaction records, either one window of
// the chain (merging any archive shards it overlaps) or the whole history of
// a single account, and filters and sorts them for display.
package txlist

import (
	"context"
	"fmt"
	"time"

	"github.com/druarnfield/stakehut/internal/ledger"
)

// Kind is the operation recorded by a transaction.
type Kind int

const (
	KindTransfer Kind = iota
	KindMint
	KindBurn
	KindApprove
)

// String returns the display name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindMint:
		return "mint"
	case KindBurn:
		return "burn"
	case KindApprove:
		return "approve"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindTransfer, KindMint, KindBurn, KindApprove} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown transaction kind %q", s)
}

// Transaction is one ledger record. From is nil for mints, To is nil for burns.
type Transaction struct {
	Index  uint64
	Kind   Kind
	From   *ledger.Account
	To     *ledger.Account
	Amount ledger.Tokens
	Fee    ledger.Tokens
	Memo   ledger.Memo
	Time   time.Time
}

// Involves reports whether acc is the sender or the receiver.
func (t Transaction) Involves(acc ledger.Account) bool {
	return (t.From != nil && t.From.Equal(acc)) || (t.To != nil && t.To.Equal(acc))
}

// BlockPage is the ledger's answer to a range query. Transactions hold the
// records it still stores, starting at FirstIndex; older records in the
// requested range are described by Archives.
type BlockPage struct {
	ChainLength  uint64
	FirstIndex   uint64
	Transactions []Transaction
	Archives     []ArchiveRange
}

// ArchiveRange points at records held by an archive shard.
type ArchiveRange struct {
	Start  uint64
	Length uint64
	Source ArchiveSource
}

// LedgerSource answers range queries against the live ledger.
type LedgerSource interface {
	Blocks(ctx context.Context, start, length uint64) (BlockPage, error)
}

// ArchiveSource answers range queries against one archive shard. Records
// are returned in order starting at start.
type ArchiveSource interface {
	Blocks(ctx context.Context, start, length uint64) ([]Transaction, error)
}

// IndexSource lists an account's transactions newest first. before, when
// set, excludes that index and everything newer.
type IndexSource interface {
	AccountTransactions(ctx context.Context, account ledger.Account, before *uint64, max int) ([]Transaction, error)
}
