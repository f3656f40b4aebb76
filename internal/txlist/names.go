package txlist

import (
	"fmt"

	"github.com/druarnfield/stakehut/internal/ledger"
)

// NameBook maps accounts to display names. Accounts without a name display
// as their account text.
type NameBook struct {
	names map[string]string
}

// NewNameBook builds a NameBook from name → account text pairs.
func NewNameBook(book map[string]string) (*NameBook, error) {
	nb := &NameBook{names: make(map[string]string, len(book))}
	for name, text := range book {
		acc, err := ledger.ParseAccount(text)
		if err != nil {
			return nil, fmt.Errorf("address book entry %q: %w", name, err)
		}
		nb.names[acc.String()] = name
	}
	return nb, nil
}

// Add names acc.
func (nb *NameBook) Add(acc ledger.Account, name string) {
	if nb.names == nil {
		nb.names = make(map[string]string)
	}
	nb.names[acc.String()] = name
}

// Name resolves acc. A nil account (the mint side of a mint, the burn side of
// a burn) has no name. A nil NameBook names nothing.
func (nb *NameBook) Name(acc *ledger.Account) string {
	if acc == nil {
		return ""
	}
	text := acc.String()
	if nb != nil {
		if name, ok := nb.names[text]; ok {
			return name
		}
	}
	return text
}
