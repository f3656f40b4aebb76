package sim

import (
	"context"
	"fmt"

	"github.com/druarnfield/stakehut/internal/ledger"
)

type managerClient struct {
	net    *Network
	id     ledger.Principal
	caller ledger.Principal
}

func (m *managerClient) GenerateMemo(context.Context) (uint64, error) {
	n := m.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpGenerateMemo, m.id.String()); err != nil {
		return 0, err
	}
	inst := n.instances[m.id]
	inst.memo++
	return inst.memo, nil
}

func (m *managerClient) StakeAccount(_ context.Context, memo uint64) (ledger.Account, error) {
	n := m.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpStakeAccount, fmt.Sprintf("memo %d", memo)); err != nil {
		return ledger.Account{}, err
	}
	sub := stakeSubaccount(m.id, memo)
	return ledger.NewAccount(GovernanceID, &sub), nil
}

func (m *managerClient) ClaimFromDeposit(_ context.Context, memo uint64, delay uint64) (ledger.NeuronID, error) {
	n := m.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.begin(OpClaimFromDeposit, fmt.Sprintf("memo %d delay %ds", memo, delay)); err != nil {
		return 0, err
	}
	if inst := n.instances[m.id]; inst.owner != m.caller {
		return 0, &ledger.ClaimError{Kind: ledger.ClaimGovernance, Message: "caller does not control this manager"}
	}

	sub := stakeSubaccount(m.id, memo)
	deposit := ledger.NewAccount(GovernanceID, &sub)
	staked := n.balances[deposit.String()]
	if staked == 0 {
		return 0, &ledger.ClaimError{Kind: ledger.ClaimDepositNotFound}
	}
	if staked < n.cfg.MinStake {
		return 0, &ledger.ClaimError{Kind: ledger.ClaimInsufficientDeposit, Minimum: n.cfg.MinStake}
	}

	nid := ledger.NeuronID(n.nextNeuro)
	n.nextNeuro++
	n.balances[deposit.String()] = 0
	n.instances[m.id].neurons[nid] = neuron{stake: staked, dissolveDelay: delay}
	return nid, nil
}
