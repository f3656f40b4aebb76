package ledger

import "fmt"

// TransferErrorKind enumerates the ways a transfer can be rejected.
type TransferErrorKind int

const (
	TransferGeneric TransferErrorKind = iota
	TransferBadFee
	TransferInsufficientFunds
	TransferTooOld
	TransferCreatedInFuture
	TransferDuplicate
	TransferTemporarilyUnavailable
)

// String returns the variant name.
func (k TransferErrorKind) String() string {
	switch k {
	case TransferBadFee:
		return "BadFee"
	case TransferInsufficientFunds:
		return "InsufficientFunds"
	case TransferTooOld:
		return "TooOld"
	case TransferCreatedInFuture:
		return "CreatedInFuture"
	case TransferDuplicate:
		return "Duplicate"
	case TransferTemporarilyUnavailable:
		return "TemporarilyUnavailable"
	default:
		return "GenericError"
	}
}

// TransferError is the rejection returned by Ledger.Transfer. Only the fields
// belonging to Kind are meaningful.
type TransferError struct {
	Kind        TransferErrorKind
	ExpectedFee Tokens     // BadFee
	Balance     Tokens     // InsufficientFunds
	DuplicateOf BlockIndex // Duplicate
	Code        uint64     // GenericError
	Message     string     // GenericError
}

func (e *TransferError) Error() string {
	switch e.Kind {
	case TransferBadFee:
		return fmt.Sprintf("bad fee: expected %s", e.ExpectedFee)
	case TransferInsufficientFunds:
		return fmt.Sprintf("insufficient funds: balance is %s", e.Balance)
	case TransferTooOld:
		return "transaction too old"
	case TransferCreatedInFuture:
		return "transaction created in the future"
	case TransferDuplicate:
		return fmt.Sprintf("duplicate of block %d", e.DuplicateOf)
	case TransferTemporarilyUnavailable:
		return "ledger temporarily unavailable"
	default:
		if e.Message == "" {
			return fmt.Sprintf("transfer failed (code %d)", e.Code)
		}
		return e.Message
	}
}

// CreateErrorKind enumerates factory creation failures.
type CreateErrorKind int

const (
	CreateOther CreateErrorKind = iota
	CreateInsufficientPayment
)

// CreateError is returned by Factory.CreateInstance.
type CreateError struct {
	Kind     CreateErrorKind
	Required Tokens // InsufficientPayment
	Message  string // Other
}

func (e *CreateError) Error() string {
	switch e.Kind {
	case CreateInsufficientPayment:
		return fmt.Sprintf("insufficient payment: %s required", e.Required)
	default:
		if e.Message == "" {
			return "instance creation failed"
		}
		return e.Message
	}
}

// NotifyErrorKind enumerates top-up notification failures.
type NotifyErrorKind int

const (
	NotifyOther NotifyErrorKind = iota
	NotifyRefunded
	NotifyInvalidTransaction
	NotifyProcessing
	NotifyTransactionTooOld
)

// NotifyError is returned by TopUp.NotifyTopUp.
type NotifyError struct {
	Kind        NotifyErrorKind
	RefundBlock *BlockIndex // Refunded
	Reason      string
}

func (e *NotifyError) Error() string {
	switch e.Kind {
	case NotifyRefunded:
		if e.RefundBlock != nil {
			return fmt.Sprintf("top-up refunded in block %d: %s", *e.RefundBlock, e.Reason)
		}
		return "top-up refunded: " + e.Reason
	case NotifyInvalidTransaction:
		return "invalid top-up transaction: " + e.Reason
	case NotifyProcessing:
		return "top-up still processing"
	case NotifyTransactionTooOld:
		return "top-up transaction too old"
	default:
		if e.Reason == "" {
			return "top-up notification failed"
		}
		return e.Reason
	}
}

// ClaimErrorKind enumerates neuron claim failures.
type ClaimErrorKind int

const (
	ClaimOther ClaimErrorKind = iota
	ClaimDepositNotFound
	ClaimInsufficientDeposit
	ClaimGovernance
)

// ClaimError is returned by Manager.ClaimFromDeposit.
type ClaimError struct {
	Kind    ClaimErrorKind
	Minimum Tokens // InsufficientDeposit
	Message string
}

func (e *ClaimError) Error() string {
	switch e.Kind {
	case ClaimDepositNotFound:
		return "no deposit found for memo"
	case ClaimInsufficientDeposit:
		return fmt.Sprintf("deposit below minimum stake of %s", e.Minimum)
	case ClaimGovernance:
		return "governance rejected claim: " + e.Message
	default:
		if e.Message == "" {
			return "claim failed"
		}
		return e.Message
	}
}
