package sim

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/txlist"
)

// Client is the view of the network from one authenticated principal. It
// implements every remote service interface stakehut consumes.
type Client struct {
	net    *Network
	caller ledger.Principal
}

var (
	_ ledger.Ledger        = (*Client)(nil)
	_ ledger.Factory       = (*Client)(nil)
	_ ledger.Conversion    = (*Client)(nil)
	_ ledger.TopUp         = (*Client)(nil)
	_ ledger.ManagerDialer = (*Client)(nil)
	_ ledger.Membership    = (*Client)(nil)
	_ txlist.LedgerSource  = (*Client)(nil)
	_ txlist.IndexSource   = (*Client)(nil)
)

// Caller returns the authenticated principal.
func (c *Client) Caller() ledger.Principal {
	return c.caller
}

// Transfer moves tokens from the caller's default account.
func (c *Client) Transfer(_ context.Context, args ledger.TransferArgs) (ledger.BlockIndex, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.begin(OpTransfer, describeTransfer(args.Amount, args.To)); err != nil {
		return 0, err
	}
	if args.Fee != n.cfg.TransferFee {
		return 0, &ledger.TransferError{Kind: ledger.TransferBadFee, ExpectedFee: n.cfg.TransferFee}
	}

	from := ledger.Account{Owner: c.caller}
	balance := n.balances[from.String()]
	total := args.Amount.Add(args.Fee)
	if balance < total {
		return 0, &ledger.TransferError{Kind: ledger.TransferInsufficientFunds, Balance: balance}
	}

	n.balances[from.String()] = balance - total
	n.balances[args.To.String()] = n.balances[args.To.String()].Add(args.Amount)

	to := args.To
	return n.appendBlock(txlist.Transaction{
		Kind:   txlist.KindTransfer,
		From:   &from,
		To:     &to,
		Amount: args.Amount,
		Fee:    args.Fee,
		Memo:   slices.Clone(args.Memo),
	}), nil
}

// BalanceOf returns the balance of any account.
func (c *Client) BalanceOf(_ context.Context, acc ledger.Account) (ledger.Tokens, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpBalanceOf, acc.String()); err != nil {
		return 0, err
	}
	return n.balances[acc.String()], nil
}

// PaymentConfig returns the factory's pricing.
func (c *Client) PaymentConfig(context.Context) (ledger.PaymentConfig, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpPaymentConfig, ""); err != nil {
		return ledger.PaymentConfig{}, err
	}
	return ledger.PaymentConfig{
		FactoryID:    FactoryID,
		CreationFee:  n.cfg.CreationFee,
		TargetCycles: n.cfg.TargetCycles,
	}, nil
}

// PremiumFee returns the discounted creation fee.
func (c *Client) PremiumFee(context.Context) (ledger.Tokens, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpPremiumFee, ""); err != nil {
		return 0, err
	}
	return n.cfg.PremiumFee, nil
}

// PaymentSubaccount returns the factory subaccount the user pays into.
func (c *Client) PaymentSubaccount(_ context.Context, user ledger.Principal) (ledger.Subaccount, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpPaymentSubaccount, user.String()); err != nil {
		return ledger.Subaccount{}, err
	}
	return ledger.SubaccountFromPrincipal(user), nil
}

// CreateInstance consumes the caller's payment and creates a manager.
func (c *Client) CreateInstance(context.Context) (ledger.Principal, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpCreateInstance, ""); err != nil {
		return ledger.Principal{}, err
	}

	required := n.cfg.CreationFee
	if n.premium[c.caller] {
		required = n.cfg.PremiumFee
	}
	sub := ledger.SubaccountFromPrincipal(c.caller)
	payment := ledger.NewAccount(FactoryID, &sub)
	if n.balances[payment.String()] < required {
		return ledger.Principal{}, &ledger.CreateError{Kind: ledger.CreateInsufficientPayment, Required: required}
	}

	paid := n.balances[payment.String()]
	treasury := ledger.Account{Owner: FactoryID}
	n.move(payment, treasury, paid)
	n.appendBlock(txlist.Transaction{Kind: txlist.KindTransfer, From: &payment, To: &treasury, Amount: paid})

	id := principalID(n.nextInst)
	n.nextInst++
	n.instances[id] = &instance{
		owner:    c.caller,
		cycles:   n.cfg.TargetCycles,
		neurons:  make(map[ledger.NeuronID]neuron),
		notified: make(map[ledger.BlockIndex]uint64),
	}
	return id, nil
}

// Rate returns the configured exchange rate.
func (c *Client) Rate(context.Context) (ledger.XDRRate, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpRate, ""); err != nil {
		return ledger.XDRRate{}, err
	}
	return ledger.XDRRate{PermyriadPerToken: n.cfg.RatePermyriad, Timestamp: n.now()}, nil
}

// NotifyTopUp converts a tagged transfer into cycles for the instance.
func (c *Client) NotifyTopUp(_ context.Context, id ledger.Principal, block ledger.BlockIndex) (uint64, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpNotifyTopUp, fmt.Sprintf("%s @%d", id, block)); err != nil {
		return 0, err
	}

	if uint64(block) >= uint64(len(n.blocks)) {
		return 0, &ledger.NotifyError{Kind: ledger.NotifyInvalidTransaction, Reason: fmt.Sprintf("block %d does not exist", block)}
	}
	tx := n.blocks[block]
	sub := ledger.SubaccountFromPrincipal(id)
	want := ledger.NewAccount(CMCID, &sub)
	if tx.To == nil || !tx.To.Equal(want) {
		return 0, &ledger.NotifyError{Kind: ledger.NotifyInvalidTransaction, Reason: "destination is not the top-up account of this instance"}
	}
	if !bytes.Equal(tx.Memo, ledger.TopUpMemo()) {
		return 0, &ledger.NotifyError{Kind: ledger.NotifyInvalidTransaction, Reason: "memo is not a top-up memo"}
	}

	inst, ok := n.instances[id]
	if !ok {
		refund := n.appendBlock(txlist.Transaction{Kind: txlist.KindTransfer, From: &want, To: tx.From, Amount: tx.Amount})
		return 0, &ledger.NotifyError{Kind: ledger.NotifyRefunded, RefundBlock: &refund, Reason: "instance does not exist"}
	}
	if cycles, done := inst.notified[block]; done {
		return cycles, nil
	}

	rate := ledger.XDRRate{PermyriadPerToken: n.cfg.RatePermyriad}
	cycles := rate.EstimateCycles(tx.Amount)
	inst.cycles += cycles
	inst.notified[block] = cycles
	n.move(want, ledger.Account{Owner: CMCID}, tx.Amount)
	return cycles, nil
}

// IsPremium reports the caller-independent premium flag of user.
func (c *Client) IsPremium(_ context.Context, user ledger.Principal) (bool, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpIsPremium, user.String()); err != nil {
		return false, err
	}
	return n.premium[user], nil
}

// Dial returns a manager client for an existing instance.
func (c *Client) Dial(_ context.Context, id ledger.Principal) (ledger.Manager, error) {
	n := c.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpDial, id.String()); err != nil {
		return nil, err
	}
	if _, ok := n.instances[id]; !ok {
		return nil, fmt.Errorf("manager instance %s not found", id)
	}
	return &managerClient{net: n, id: id, caller: c.caller}, nil
}
