package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/txlist"
)

type Config struct {
	Identity     IdentityConfig     `toml:"identity"`
	Ledger       LedgerConfig       `toml:"ledger"`
	Staking      StakingConfig      `toml:"staking"`
	Transactions TransactionsConfig `toml:"transactions"`
	AddressBook  map[string]string  `toml:"address_book"`
	Simulator    SimulatorConfig    `toml:"simulator"`
	UI           UIConfig           `toml:"ui"`
}

type IdentityConfig struct {
	Principal ledger.Principal `toml:"principal"`
}

type LedgerConfig struct {
	LedgerID    ledger.Principal `toml:"ledger_id"`
	CMC         ledger.Principal `toml:"cmc"`
	TransferFee ledger.Tokens    `toml:"transfer_fee"`
}

type StakingConfig struct {
	MinStake            ledger.Tokens `toml:"min_stake"`
	DefaultDissolveDays uint32        `toml:"default_dissolve_days"`
	SettleDelaySecs     int           `toml:"settle_delay_secs"`
}

// SettleDelay is the wait between the stake transfer and the neuron claim.
func (s StakingConfig) SettleDelay() time.Duration {
	return time.Duration(s.SettleDelaySecs) * time.Second
}

type TransactionsConfig struct {
	PageSize  uint64 `toml:"page_size"`
	BatchSize int    `toml:"batch_size"`
}

type SimulatorConfig struct {
	InitialBalance   ledger.Tokens `toml:"initial_balance"`
	CreationFee      ledger.Tokens `toml:"creation_fee"`
	PremiumFee       ledger.Tokens `toml:"premium_fee"`
	Premium          bool          `toml:"premium"`
	RatePermyriad    uint64        `toml:"rate_permyriad"`
	RetainedBlocks   uint64        `toml:"retained_blocks"`
	ArchiveShardSize uint64        `toml:"archive_shard_size"`

	// FailOnce lists operations (for example "manager.ClaimFromDeposit")
	// that fail the first time they are called in a run.
	FailOnce []string `toml:"fail_once"`
}

type UIConfig struct {
	MarkdownStyle    string `toml:"markdown_style"`
	PollIntervalSecs int    `toml:"poll_interval_secs"`
}

// PollInterval is how often the wizard refreshes the wallet balance.
func (u UIConfig) PollInterval() time.Duration {
	return time.Duration(u.PollIntervalSecs) * time.Second
}

func Defaults() *Config {
	return &Config{
		Identity: IdentityConfig{Principal: ledger.MustParsePrincipal("2vxsx-fae")},
		Ledger: LedgerConfig{
			LedgerID:    ledger.MustParsePrincipal("ryjl3-tyaaa-aaaaa-aaaba-cai"),
			CMC:         ledger.MustParsePrincipal("rkp4c-7iaaa-aaaaa-aaaca-cai"),
			TransferFee: 10_000,
		},
		Staking: StakingConfig{
			MinStake:            ledger.TokensFromWhole(1),
			DefaultDissolveDays: 183,
			SettleDelaySecs:     5,
		},
		Transactions: TransactionsConfig{PageSize: 20, BatchSize: 100},
		Simulator: SimulatorConfig{
			InitialBalance:   ledger.TokensFromWhole(10),
			CreationFee:      ledger.TokensFromWhole(2),
			PremiumFee:       ledger.TokensFromWhole(1),
			RatePermyriad:    40_000,
			RetainedBlocks:   50,
			ArchiveShardSize: 25,
		},
		UI: UIConfig{MarkdownStyle: "dark", PollIntervalSecs: 10},
	}
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load reads path if it exists and falls back to defaults otherwise.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return LoadFromFile(path)
}

// Validate checks values the TOML decoder cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.Transactions.PageSize == 0 {
		errs = append(errs, errors.New("transactions.page_size must be positive"))
	}
	if c.Transactions.BatchSize <= 0 {
		errs = append(errs, errors.New("transactions.batch_size must be positive"))
	}
	if c.Staking.DefaultDissolveDays > 2922 {
		errs = append(errs, errors.New("staking.default_dissolve_days cannot exceed 2922"))
	}
	if c.Staking.SettleDelaySecs < 0 {
		errs = append(errs, errors.New("staking.settle_delay_secs must not be negative"))
	}
	if _, err := txlist.NewNameBook(c.AddressBook); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Names builds the address book used to label accounts.
func (c *Config) Names() *txlist.NameBook {
	nb, err := txlist.NewNameBook(c.AddressBook)
	if err != nil {
		return &txlist.NameBook{}
	}
	return nb
}
