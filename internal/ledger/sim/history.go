package sim

import (
	"context"
	"fmt"

	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/txlist"
)

// firstRetained is the lowest index still held by the live ledger. Callers
// hold n.mu.
func (n *Network) firstRetained() uint64 {
	total := uint64(len(n.blocks))
	if n.cfg.RetainedBlocks == 0 || total <= n.cfg.RetainedBlocks {
		return 0
	}
	return total - n.cfg.RetainedBlocks
}

// Blocks answers a ledger range query. Records older than the retained
// window are referenced through archive shards instead of returned inline.
func (c *Client) Blocks(_ context.Context, start, length uint64) (txlist.BlockPage, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpBlocks, fmt.Sprintf("%d+%d", start, length)); err != nil {
		return txlist.BlockPage{}, err
	}

	total := uint64(len(n.blocks))
	first := n.firstRetained()
	end := min(start+length, total)

	page := txlist.BlockPage{ChainLength: total, FirstIndex: max(start, first)}
	for i := page.FirstIndex; i < end; i++ {
		tx := n.blocks[i]
		tx.Index = 0 // positions are implied by FirstIndex
		page.Transactions = append(page.Transactions, tx)
	}

	shard := n.cfg.ArchiveShardSize
	for s := (start / shard) * shard; s < min(end, first); s += shard {
		lo := max(start, s)
		hi := min(s+shard, end, first)
		if lo >= hi {
			continue
		}
		page.Archives = append(page.Archives, txlist.ArchiveRange{
			Start:  lo,
			Length: hi - lo,
			Source: &archive{net: n, lo: s, hi: min(s+shard, first)},
		})
	}
	return page, nil
}

type archive struct {
	net    *Network
	lo, hi uint64
}

func (a *archive) Blocks(_ context.Context, start, length uint64) ([]txlist.Transaction, error) {
	n := a.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpArchiveBlocks, fmt.Sprintf("[%d,%d) %d+%d", a.lo, a.hi, start, length)); err != nil {
		return nil, err
	}
	if start < a.lo || start+length > a.hi {
		return nil, fmt.Errorf("range %d+%d outside archive [%d,%d)", start, length, a.lo, a.hi)
	}
	out := make([]txlist.Transaction, 0, length)
	for i := start; i < start+length; i++ {
		tx := n.blocks[i]
		tx.Index = 0
		out = append(out, tx)
	}
	return out, nil
}

// AccountTransactions lists acc's records newest first.
func (c *Client) AccountTransactions(_ context.Context, acc ledger.Account, before *uint64, maxResults int) ([]txlist.Transaction, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpAccountTxs, acc.String()); err != nil {
		return nil, err
	}

	top := uint64(len(n.blocks))
	if before != nil && *before < top {
		top = *before
	}
	var out []txlist.Transaction
	for i := top; i > 0 && len(out) < maxResults; i-- {
		tx := n.blocks[i-1]
		if tx.Involves(acc) {
			out = append(out, tx)
		}
	}
	return out, nil
}
