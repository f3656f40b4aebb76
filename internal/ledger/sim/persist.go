package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/txlist"
)

type snapshot struct {
	Balances   map[string]ledger.Tokens  `json:"balances"`
	Blocks     []txlist.Transaction      `json:"blocks"`
	Instances  map[string]instanceRecord `json:"instances"`
	Premium    []ledger.Principal        `json:"premium,omitempty"`
	NextInst   uint64                    `json:"next_instance"`
	NextNeuron uint64                    `json:"next_neuron"`
}

type instanceRecord struct {
	Owner    ledger.Principal        `json:"owner"`
	Cycles   uint64                  `json:"cycles"`
	Memo     uint64                  `json:"memo"`
	Neurons  map[uint64]neuronRecord `json:"neurons,omitempty"`
	Notified map[uint64]uint64       `json:"notified,omitempty"`
}

type neuronRecord struct {
	Stake         ledger.Tokens `json:"stake"`
	DissolveDelay uint64        `json:"dissolve_delay"`
}

// Save writes the network's ledger state to path. Call records and pending
// failures are not saved.
func (n *Network) Save(path string) error {
	n.mu.Lock()
	snap := snapshot{
		Balances:   n.balances,
		Blocks:     n.blocks,
		Instances:  make(map[string]instanceRecord, len(n.instances)),
		NextInst:   n.nextInst,
		NextNeuron: n.nextNeuro,
	}
	for id, inst := range n.instances {
		rec := instanceRecord{
			Owner:    inst.owner,
			Cycles:   inst.cycles,
			Memo:     inst.memo,
			Neurons:  make(map[uint64]neuronRecord, len(inst.neurons)),
			Notified: make(map[uint64]uint64, len(inst.notified)),
		}
		for nid, nr := range inst.neurons {
			rec.Neurons[uint64(nid)] = neuronRecord{Stake: nr.stake, DissolveDelay: nr.dissolveDelay}
		}
		for b, c := range inst.notified {
			rec.Notified[uint64(b)] = c
		}
		snap.Instances[id.String()] = rec
	}
	for p, ok := range n.premium {
		if ok {
			snap.Premium = append(snap.Premium, p)
		}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	n.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding network: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Open restores a network saved at path, or returns a fresh one when the
// file does not exist. Premium principals from cfg are added to the saved
// ones.
func Open(path string, cfg Config, now func() time.Time) (*Network, bool, error) {
	n := New(cfg, now)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return n, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("decoding network %s: %w", path, err)
	}
	if snap.Balances != nil {
		n.balances = snap.Balances
	}
	n.blocks = snap.Blocks
	for i := range n.blocks {
		n.blocks[i].Index = uint64(i)
	}
	for text, rec := range snap.Instances {
		id, err := ledger.ParsePrincipal(text)
		if err != nil {
			return nil, false, fmt.Errorf("decoding network %s: %w", path, err)
		}
		inst := &instance{
			owner:    rec.Owner,
			cycles:   rec.Cycles,
			memo:     rec.Memo,
			neurons:  make(map[ledger.NeuronID]neuron, len(rec.Neurons)),
			notified: make(map[ledger.BlockIndex]uint64, len(rec.Notified)),
		}
		for nid, nr := range rec.Neurons {
			inst.neurons[ledger.NeuronID(nid)] = neuron{stake: nr.Stake, dissolveDelay: nr.DissolveDelay}
		}
		for b, c := range rec.Notified {
			inst.notified[ledger.BlockIndex(b)] = c
		}
		n.instances[id] = inst
	}
	for _, p := range snap.Premium {
		n.premium[p] = true
	}
	if snap.NextInst > n.nextInst {
		n.nextInst = snap.NextInst
	}
	if snap.NextNeuron > n.nextNeuro {
		n.nextNeuro = snap.NextNeuron
	}
	return n, true, nil
}
