package txlist

import (
	"slices"
	"strings"

	"github.com/druarnfield/stakehut/internal/ledger"
)

// MatchMode is how a Matcher compares accounts.
type MatchMode int

const (
	// MatchAny matches every account, including a missing one.
	MatchAny MatchMode = iota
	// MatchAccount matches one exact principal and subaccount.
	MatchAccount
	// MatchPrincipal matches every subaccount of a principal.
	MatchPrincipal
	// MatchName matches a case-insensitive substring of the display name.
	MatchName
)

// Matcher selects one side of a transaction.
type Matcher struct {
	mode      MatchMode
	account   ledger.Account
	principal ledger.Principal
	text      string
}

// ParseMatcher interprets user input. Extended account text selects one
// account, a bare principal selects all of its subaccounts and anything else
// is a name substring. Blank input matches everything.
func ParseMatcher(input string) Matcher {
	s := strings.TrimSpace(input)
	if s == "" {
		return Matcher{}
	}
	if ledger.IsAccountText(s) {
		return Matcher{mode: MatchAccount, account: ledger.MustParseAccount(s)}
	}
	if p, err := ledger.ParsePrincipal(s); err == nil {
		return Matcher{mode: MatchPrincipal, principal: p}
	}
	return Matcher{mode: MatchName, text: strings.ToLower(s)}
}

// Mode returns how m compares accounts.
func (m Matcher) Mode() MatchMode { return m.mode }

// Empty reports whether m matches everything.
func (m Matcher) Empty() bool { return m.mode == MatchAny }

// Match reports whether acc satisfies m.
func (m Matcher) Match(acc *ledger.Account, names *NameBook) bool {
	switch m.mode {
	case MatchAny:
		return true
	case MatchAccount:
		return acc != nil && acc.Equal(m.account)
	case MatchPrincipal:
		return acc != nil && acc.Owner == m.principal
	case MatchName:
		if acc == nil {
			return false
		}
		return strings.Contains(strings.ToLower(names.Name(acc)), m.text)
	}
	return false
}

// Combine joins the from and to matchers of a Filter.
type Combine int

const (
	And Combine = iota
	Or
)

// Filter selects transactions by kind and by sender and receiver.
type Filter struct {
	From    Matcher
	To      Matcher
	Combine Combine

	// Kinds restricts the kinds shown; empty shows all.
	Kinds []Kind
}

// Match reports whether tx passes f. With Or only the non-empty matchers
// take part, so a single filled side behaves the same under And and Or.
func (f Filter) Match(tx Transaction, names *NameBook) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, tx.Kind) {
		return false
	}
	if f.Combine == And {
		return f.From.Match(tx.From, names) && f.To.Match(tx.To, names)
	}

	if f.From.Empty() && f.To.Empty() {
		return true
	}
	return (!f.From.Empty() && f.From.Match(tx.From, names)) ||
		(!f.To.Empty() && f.To.Match(tx.To, names))
}

// Apply returns the transactions that pass f, preserving order.
func (f Filter) Apply(txs []Transaction, names *NameBook) []Transaction {
	var out []Transaction
	for _, tx := range txs {
		if f.Match(tx, names) {
			out = append(out, tx)
		}
	}
	return out
}
