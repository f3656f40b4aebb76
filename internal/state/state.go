package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/druarnfield/stakehut/internal/ledger"
)

type State struct {
	Instances       []Instance `json:"instances"`
	LastRun         time.Time  `json:"last_run"`
	StakehutVersion string     `json:"stakehut_version"`
}

// Instance is a manager instance created from this machine.
type Instance struct {
	ID          ledger.Principal `json:"id"`
	Owner       ledger.Principal `json:"owner"`
	SessionID   string           `json:"session_id"`
	CreatedAt   time.Time        `json:"created_at"`
	CyclesAdded uint64           `json:"cycles_added,omitempty"`
	Neurons     []uint64         `json:"neurons,omitempty"`
	TopUpFailed bool             `json:"top_up_failed,omitempty"`
	StakeFailed bool             `json:"stake_failed,omitempty"`
}

func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func Save(path string, s *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AddInstance records a new instance. Recording the same id twice keeps the
// first entry.
func (s *State) AddInstance(inst Instance) {
	if s.Find(inst.ID) == nil {
		s.Instances = append(s.Instances, inst)
	}
}

// Find returns the recorded instance with id, or nil.
func (s *State) Find(id ledger.Principal) *Instance {
	for i := range s.Instances {
		if s.Instances[i].ID == id {
			return &s.Instances[i]
		}
	}
	return nil
}

// AddNeuron attaches a neuron to a recorded instance. It reports false when
// the instance is unknown.
func (s *State) AddNeuron(id ledger.Principal, neuron uint64) bool {
	inst := s.Find(id)
	if inst == nil {
		return false
	}
	if !slices.Contains(inst.Neurons, neuron) {
		inst.Neurons = append(inst.Neurons, neuron)
	}
	inst.StakeFailed = false
	return true
}

// InstancesOf lists the instances owned by owner, oldest first.
func (s *State) InstancesOf(owner ledger.Principal) []Instance {
	var out []Instance
	for _, inst := range s.Instances {
		if inst.Owner == owner {
			out = append(out, inst)
		}
	}
	return out
}
