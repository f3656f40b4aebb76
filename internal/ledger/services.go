package ledger

import (
	"context"
	"math"
	"math/bits"
	"time"
)

// BlockIndex is the position of a transaction in the ledger chain.
type BlockIndex uint64

// TransferArgs describes an outgoing transfer from the caller's default account.
type TransferArgs struct {
	To     Account
	Amount Tokens
	Fee    Tokens
	Memo   Memo
}

// Ledger moves tokens on behalf of the authenticated caller.
type Ledger interface {
	Transfer(ctx context.Context, args TransferArgs) (BlockIndex, error)
	BalanceOf(ctx context.Context, account Account) (Tokens, error)
}

// PaymentConfig is the factory's creation pricing.
type PaymentConfig struct {
	FactoryID    Principal
	CreationFee  Tokens
	TargetCycles uint64
}

// Factory creates manager instances for paying callers. CreateInstance
// returns a *CreateError on rejection.
type Factory interface {
	PaymentConfig(ctx context.Context) (PaymentConfig, error)
	PremiumFee(ctx context.Context) (Tokens, error)
	PaymentSubaccount(ctx context.Context, user Principal) (Subaccount, error)
	CreateInstance(ctx context.Context) (Principal, error)
}

// XDRRate is the token price in ten-thousandths of an XDR.
type XDRRate struct {
	PermyriadPerToken uint64
	Timestamp         time.Time
}

// CyclesPerXDR is the fixed cycles conversion.
const CyclesPerXDR = 1_000_000_000_000

// EstimateCycles converts an amount to cycles at this rate. The result is a
// display estimate and saturates rather than overflowing.
func (r XDRRate) EstimateCycles(t Tokens) uint64 {
	// e8s/1e8 * permyriad/1e4 * 1e12 reduces to e8s * permyriad.
	hi, lo := bits.Mul64(uint64(t), r.PermyriadPerToken)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// Conversion reports the token/XDR exchange rate.
type Conversion interface {
	Rate(ctx context.Context) (XDRRate, error)
}

// TopUp credits cycles to an instance once a tagged transfer has landed.
// NotifyTopUp returns a *NotifyError on rejection.
type TopUp interface {
	NotifyTopUp(ctx context.Context, instance Principal, block BlockIndex) (cycles uint64, err error)
}

// NeuronID identifies a staked neuron.
type NeuronID uint64

// Manager is a created manager instance.
type Manager interface {
	GenerateMemo(ctx context.Context) (uint64, error)
	StakeAccount(ctx context.Context, memo uint64) (Account, error)
	ClaimFromDeposit(ctx context.Context, memo uint64, dissolveDelaySeconds uint64) (NeuronID, error)
}

// ManagerDialer connects to a manager instance by id.
type ManagerDialer interface {
	Dial(ctx context.Context, instance Principal) (Manager, error)
}

// Membership reports whether a principal holds premium status.
type Membership interface {
	IsPremium(ctx context.Context, user Principal) (bool, error)
}
