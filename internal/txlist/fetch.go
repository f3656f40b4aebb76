package txlist

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/druarnfield/stakehut/internal/ledger"
)

// ErrPageSize is returned for a zero page or batch size.
var ErrPageSize = errors.New("page size must be positive")

// Window is one newest-first page of the chain.
type Window struct {
	Page        uint64
	PageSize    uint64
	ChainLength uint64

	// Start is the absolute index of the oldest record in the window.
	Start uint64

	// Transactions are ordered by ascending index.
	Transactions []Transaction
}

// Pages returns the number of pages the chain spans at this page size.
func (w Window) Pages() uint64 {
	if w.PageSize == 0 {
		return 0
	}
	return (w.ChainLength + w.PageSize - 1) / w.PageSize
}

// FetchWindow fetches page (0 is the most recent) of the chain. Records held
// by archive shards are fetched concurrently and merged in.
func FetchWindow(ctx context.Context, src LedgerSource, page, pageSize uint64) (Window, error) {
	if pageSize == 0 {
		return Window{}, ErrPageSize
	}
	head, err := src.Blocks(ctx, 0, 0)
	if err != nil {
		return Window{}, fmt.Errorf("querying chain length: %w", err)
	}

	w := Window{Page: page, PageSize: pageSize, ChainLength: head.ChainLength}
	skip := page * pageSize
	if page != 0 && skip/page != pageSize || skip >= w.ChainLength {
		return w, nil
	}
	end := w.ChainLength - skip
	w.Start = end - min(pageSize, end)

	w.Transactions, err = FetchRange(ctx, src, w.Start, end-w.Start)
	if err != nil {
		return Window{}, err
	}
	return w, nil
}

// FetchRange returns records [start, start+length) in index order, tagging
// each with its absolute index.
func FetchRange(ctx context.Context, src LedgerSource, start, length uint64) ([]Transaction, error) {
	page, err := src.Blocks(ctx, start, length)
	if err != nil {
		return nil, fmt.Errorf("querying blocks %d+%d: %w", start, length, err)
	}

	parts := make([][]Transaction, len(page.Archives)+1)
	parts[0] = tag(page.Transactions, page.FirstIndex)

	g, gctx := errgroup.WithContext(ctx)
	for i, ar := range page.Archives {
		g.Go(func() error {
			txs, err := ar.Source.Blocks(gctx, ar.Start, ar.Length)
			if err != nil {
				return fmt.Errorf("querying archive %d+%d: %w", ar.Start, ar.Length, err)
			}
			parts[i+1] = tag(txs, ar.Start)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(parts, start, start+length), nil
}

func tag(txs []Transaction, first uint64) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		tx.Index = first + uint64(i)
		out[i] = tx
	}
	return out
}

// merge flattens parts, keeps indexes in [lo, hi) and drops duplicates.
func merge(parts [][]Transaction, lo, hi uint64) []Transaction {
	var out []Transaction
	for _, p := range parts {
		for _, tx := range p {
			if tx.Index >= lo && tx.Index < hi {
				out = append(out, tx)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return slices.CompactFunc(out, func(a, b Transaction) bool {
		return a.Index == b.Index
	})
}

// FetchAccount pulls the whole history of acc from the index in batches,
// stopping at the first short batch. Records are newest first.
func FetchAccount(ctx context.Context, idx IndexSource, acc ledger.Account, batch int) ([]Transaction, error) {
	if batch <= 0 {
		return nil, ErrPageSize
	}

	var (
		out    []Transaction
		before *uint64
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		txs, err := idx.AccountTransactions(ctx, acc, before, batch)
		if err != nil {
			return nil, fmt.Errorf("listing transactions of %s: %w", acc, err)
		}
		out = append(out, txs...)
		if len(txs) < batch {
			return out, nil
		}

		oldest := txs[len(txs)-1].Index
		if before != nil && oldest >= *before {
			return nil, fmt.Errorf("index returned %d at or after cursor %d", oldest, *before)
		}
		before = &oldest
	}
}
