package sim

import (
	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/txlist"
)

// DemoAccounts are the counterparties Seed trades between.
var DemoAccounts = []ledger.Account{
	{Owner: principalID(0x7000)},
	{Owner: principalID(0x7001)},
	demoSubaccount(0x7001, 1),
	{Owner: principalID(0x7002)},
}

func demoSubaccount(n, sub uint64) ledger.Account {
	s := ledger.SubaccountFromUint64(sub)
	return ledger.NewAccount(principalID(n), &s)
}

// Seed credits user with balance and appends count deterministic transfers
// among DemoAccounts and user, enough to give listings history to page
// through and archives to merge.
func (n *Network) Seed(user ledger.Principal, balance ledger.Tokens, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	accounts := append([]ledger.Account{{Owner: user}}, DemoAccounts...)
	for _, acc := range DemoAccounts {
		to := acc
		n.balances[acc.String()] = n.balances[acc.String()].Add(ledger.TokensFromWhole(1_000))
		n.appendBlock(txlist.Transaction{Kind: txlist.KindMint, To: &to, Amount: ledger.TokensFromWhole(1_000)})
	}

	for i := range count {
		from := accounts[1+i%len(DemoAccounts)]
		to := accounts[(i*7+3)%len(accounts)]
		if from.Equal(to) {
			to = accounts[0]
		}
		amount := ledger.Tokens(uint64(i*7919%1000+1) * 1_000_000)
		n.move(from, to, amount)
		n.balances[from.String()] = n.balances[from.String()].Sub(n.cfg.TransferFee)
		n.appendBlock(txlist.Transaction{
			Kind:   txlist.KindTransfer,
			From:   &from,
			To:     &to,
			Amount: amount,
			Fee:    n.cfg.TransferFee,
		})
	}

	if balance > 0 {
		to := ledger.Account{Owner: user}
		n.balances[to.String()] = n.balances[to.String()].Add(balance)
		n.appendBlock(txlist.Transaction{Kind: txlist.KindMint, To: &to, Amount: balance})
	}
}
