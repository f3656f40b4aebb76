package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/tui/components"
	"github.com/druarnfield/stakehut/internal/txlist"
)

type txsOptions struct {
	account string
	from    string
	to      string
	or      bool
	sort    string
	desc    bool
	page    uint64
	kinds   []string
}

func newTxsCmd() *cobra.Command {
	var opts txsOptions
	cmd := &cobra.Command{
		Use:   "txs",
		Short: "List ledger transactions",
		Long: "Show one page of the ledger, newest page first, or with --account the full history of one account.\n\n" +
			"--from and --to accept account text, a principal, or part of an address book name.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := openApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.close(); err == nil {
					err = closeErr
				}
			}()
			return a.listTransactions(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.account, "account", "", "Show the history of one account (\"me\" for your own)")
	cmd.Flags().StringVar(&opts.from, "from", "", "Only transactions sent by this account")
	cmd.Flags().StringVar(&opts.to, "to", "", "Only transactions received by this account")
	cmd.Flags().BoolVar(&opts.or, "or", false, "Match --from or --to instead of both")
	cmd.Flags().StringVar(&opts.sort, "sort", "index", "Sort by index, kind, from, to, amount or time")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "Sort descending")
	cmd.Flags().Uint64Var(&opts.page, "page", 0, "Page of the ledger, 0 is the newest")
	cmd.Flags().StringSliceVar(&opts.kinds, "kind", nil, "Only these kinds (transfer, mint, burn, approve)")
	return cmd
}

func (a *app) listTransactions(cmd *cobra.Command, opts txsOptions) error {
	key, err := txlist.ParseSortKey(opts.sort)
	if err != nil {
		return err
	}
	filter := txlist.Filter{
		From: txlist.ParseMatcher(opts.from),
		To:   txlist.ParseMatcher(opts.to),
	}
	if opts.or {
		filter.Combine = txlist.Or
	}
	for _, s := range opts.kinds {
		k, err := txlist.ParseKind(s)
		if err != nil {
			return err
		}
		filter.Kinds = append(filter.Kinds, k)
	}

	names := a.cfg.Names()
	names.Add(ledger.Account{Owner: a.user}, "me")

	ctx := cmd.Context()
	var (
		txs    []txlist.Transaction
		footer string
	)
	if opts.account != "" {
		acc, err := resolveAccount(opts.account, a.user, a.cfg.AddressBook)
		if err != nil {
			return err
		}
		txs, err = txlist.FetchAccount(ctx, a.client, acc, a.cfg.Transactions.BatchSize)
		if err != nil {
			return err
		}
		footer = fmt.Sprintf("%d transactions of %s", len(txs), names.Name(&acc))
	} else {
		w, err := txlist.FetchWindow(ctx, a.client, opts.page, a.cfg.Transactions.PageSize)
		if err != nil {
			return err
		}
		txs = w.Transactions
		footer = fmt.Sprintf("page %d of %d, %d transactions on the ledger", w.Page+1, max(w.Pages(), 1), w.ChainLength)
	}

	fetched := len(txs)
	txs = filter.Apply(txs, names)
	txlist.Sort(txs, key, opts.desc, names)
	a.logger.Debug("listed transactions",
		slog.Int("fetched", fetched),
		slog.Int("shown", len(txs)),
		slog.String("sort", key.String()),
	)

	if len(txs) == 0 {
		fmt.Fprintln(a.out, "No transactions match.")
	} else {
		fmt.Fprintln(a.out, renderTransactions(a, txs, names))
	}
	fmt.Fprintln(a.out, a.styles.Muted.Render(footer))
	return nil
}

func renderTransactions(a *app, txs []txlist.Transaction, names *txlist.NameBook) string {
	rows := make([][]string, len(txs))
	for i, tx := range txs {
		rows[i] = []string{
			strconv.FormatUint(tx.Index, 10),
			tx.Time.Local().Format("2006-01-02 15:04:05"),
			tx.Kind.String(),
			accountCell(tx.From, names),
			accountCell(tx.To, names),
			tx.Amount.String(),
			tx.Fee.String(),
		}
	}
	return components.RenderTable(a.styles, []string{"#", "Time", "Kind", "From", "To", "Amount", "Fee"}, rows)
}

func accountCell(acc *ledger.Account, names *txlist.NameBook) string {
	if acc == nil {
		return "-"
	}
	return names.Name(acc)
}

// resolveAccount turns account text, a principal, an address book name or
// "me" into an account.
func resolveAccount(s string, me ledger.Principal, book map[string]string) (ledger.Account, error) {
	if s == "me" {
		return ledger.Account{Owner: me}, nil
	}
	if text, ok := book[s]; ok {
		return ledger.ParseAccount(text)
	}
	if ledger.IsAccountText(s) {
		return ledger.ParseAccount(s)
	}
	p, err := ledger.ParsePrincipal(s)
	if err != nil {
		return ledger.Account{}, errors.New("--account must be account text, a principal, or an address book name")
	}
	return ledger.Account{Owner: p}, nil
}
