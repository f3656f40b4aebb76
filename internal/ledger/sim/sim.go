// Package sim is an in-memory stand-in for the remote ledger, factory,
// conversion, top-up, membership and manager services. It keeps balances and
// a transaction chain, records every call in order and can be told to fail
// specific operations, which makes it the test double for everything that
// talks to the network as well as the backend of the offline CLI.
package sim

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/txlist"
)

// Operation names used in call records and failure injection.
const (
	OpTransfer          = "ledger.Transfer"
	OpBalanceOf         = "ledger.BalanceOf"
	OpPaymentConfig     = "factory.PaymentConfig"
	OpPremiumFee        = "factory.PremiumFee"
	OpPaymentSubaccount = "factory.PaymentSubaccount"
	OpCreateInstance    = "factory.CreateInstance"
	OpRate              = "cmc.Rate"
	OpNotifyTopUp       = "cmc.NotifyTopUp"
	OpIsPremium         = "membership.IsPremium"
	OpDial              = "manager.Dial"
	OpGenerateMemo      = "manager.GenerateMemo"
	OpStakeAccount      = "manager.StakeAccount"
	OpClaimFromDeposit  = "manager.ClaimFromDeposit"
	OpBlocks            = "ledger.Blocks"
	OpArchiveBlocks     = "archive.Blocks"
	OpAccountTxs        = "index.AccountTransactions"
)

// Well-known principals of the simulated network.
var (
	LedgerID     = principalID(2)
	GovernanceID = principalID(1)
	CMCID        = principalID(4)
	FactoryID    = principalID(0x5000)
	MinterID     = principalID(0)
)

func principalID(n uint64) ledger.Principal {
	b := make([]byte, 10)
	binary.BigEndian.PutUint64(b, n)
	b[8], b[9] = 1, 1
	return ledger.PrincipalFromBytes(b)
}

// Config sets the prices and limits of a simulated network.
type Config struct {
	TransferFee       ledger.Tokens
	CreationFee       ledger.Tokens
	PremiumFee        ledger.Tokens
	TargetCycles      uint64
	RatePermyriad     uint64
	MinStake          ledger.Tokens
	RetainedBlocks    uint64 // blocks kept by the live ledger, 0 keeps all
	ArchiveShardSize  uint64
	PremiumPrincipals []ledger.Principal
}

// DefaultConfig mirrors mainnet pricing closely enough for demos and tests.
func DefaultConfig() Config {
	return Config{
		TransferFee:      10_000,
		CreationFee:      ledger.TokensFromWhole(2),
		PremiumFee:       ledger.TokensFromWhole(1),
		TargetCycles:     1_000_000_000_000,
		RatePermyriad:    40_000,
		MinStake:         ledger.TokensFromWhole(1),
		RetainedBlocks:   0,
		ArchiveShardSize: 100,
	}
}

// Call is one recorded invocation.
type Call struct {
	Op     string
	Detail string
}

type instance struct {
	owner    ledger.Principal
	cycles   uint64
	memo     uint64
	neurons  map[ledger.NeuronID]neuron
	notified map[ledger.BlockIndex]uint64
}

type neuron struct {
	stake         ledger.Tokens
	dissolveDelay uint64
}

// Network is the shared state behind every simulated client.
type Network struct {
	mu        sync.Mutex
	cfg       Config
	now       func() time.Time
	balances  map[string]ledger.Tokens
	blocks    []txlist.Transaction
	instances map[ledger.Principal]*instance
	premium   map[ledger.Principal]bool
	failures  map[string][]error
	calls     []Call
	nextInst  uint64
	nextNeuro uint64
}

// New creates a Network. A nil clock uses time.Now.
func New(cfg Config, now func() time.Time) *Network {
	if now == nil {
		now = time.Now
	}
	if cfg.ArchiveShardSize == 0 {
		cfg.ArchiveShardSize = 100
	}
	n := &Network{
		cfg:       cfg,
		now:       now,
		balances:  make(map[string]ledger.Tokens),
		instances: make(map[ledger.Principal]*instance),
		premium:   make(map[ledger.Principal]bool),
		failures:  make(map[string][]error),
		nextInst:  0x6000,
		nextNeuro: 1,
	}
	for _, p := range cfg.PremiumPrincipals {
		n.premium[p] = true
	}
	return n
}

// Config returns the network's pricing.
func (n *Network) Config() Config {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cfg
}

// Mint credits amount to acc and records a mint block.
func (n *Network) Mint(acc ledger.Account, amount ledger.Tokens) ledger.BlockIndex {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[acc.String()] = n.balances[acc.String()].Add(amount)
	to := acc
	return n.appendBlock(txlist.Transaction{Kind: txlist.KindMint, To: &to, Amount: amount})
}

// SetPremium grants or revokes premium status.
func (n *Network) SetPremium(p ledger.Principal, premium bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.premium[p] = premium
}

// FailNext makes the next call to op return err. Calls queue up.
func (n *Network) FailNext(op string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures[op] = append(n.failures[op], err)
}

// Calls returns every recorded call in order.
func (n *Network) Calls() []Call {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Call, len(n.calls))
	copy(out, n.calls)
	return out
}

// CallCount returns how many times op was called.
func (n *Network) CallCount(op string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, call := range n.calls {
		if call.Op == op {
			c++
		}
	}
	return c
}

// ResetCalls clears the call record.
func (n *Network) ResetCalls() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = nil
}

// Balance reads a balance without recording a call.
func (n *Network) Balance(acc ledger.Account) ledger.Tokens {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.balances[acc.String()]
}

// Cycles returns the cycles credited to an instance.
func (n *Network) Cycles(id ledger.Principal) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if inst, ok := n.instances[id]; ok {
		return inst.cycles
	}
	return 0
}

// Neuron returns the stake and dissolve delay of a claimed neuron.
func (n *Network) Neuron(id ledger.Principal, nid ledger.NeuronID) (ledger.Tokens, uint64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	inst, ok := n.instances[id]
	if !ok {
		return 0, 0, false
	}
	nr, ok := inst.neurons[nid]
	return nr.stake, nr.dissolveDelay, ok
}

// Instances lists instances owned by p.
func (n *Network) Instances(p ledger.Principal) []ledger.Principal {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ledger.Principal
	for id, inst := range n.instances {
		if inst.owner == p {
			out = append(out, id)
		}
	}
	return out
}

// As returns a client authenticated as caller.
func (n *Network) As(caller ledger.Principal) *Client {
	return &Client{net: n, caller: caller}
}

// begin records a call and pops any injected failure. Callers hold n.mu.
func (n *Network) begin(op, detail string) error {
	n.calls = append(n.calls, Call{Op: op, Detail: detail})
	if q := n.failures[op]; len(q) > 0 {
		err := q[0]
		n.failures[op] = q[1:]
		return err
	}
	return nil
}

func (n *Network) appendBlock(tx txlist.Transaction) ledger.BlockIndex {
	tx.Index = uint64(len(n.blocks))
	tx.Time = n.now()
	n.blocks = append(n.blocks, tx)
	return ledger.BlockIndex(tx.Index)
}

// move debits from and credits to without fee or record. Callers hold n.mu.
func (n *Network) move(from, to ledger.Account, amount ledger.Tokens) {
	n.balances[from.String()] = n.balances[from.String()].Sub(amount)
	n.balances[to.String()] = n.balances[to.String()].Add(amount)
}

func stakeSubaccount(id ledger.Principal, memo uint64) ledger.Subaccount {
	h := sha256.New()
	h.Write([]byte{0x0c})
	h.Write([]byte("neuron-stake"))
	h.Write(id.Bytes())
	var m [8]byte
	binary.BigEndian.PutUint64(m[:], memo)
	h.Write(m[:])
	var s ledger.Subaccount
	copy(s[:], h.Sum(nil))
	return s
}

func describeTransfer(amount ledger.Tokens, to ledger.Account) string {
	return fmt.Sprintf("%s -> %s", amount, to)
}
