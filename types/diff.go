package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind names the account dimension a Difference is about.
type Kind int

const (
	// KindNonce is a transaction count mismatch, rendered in decimal.
	KindNonce Kind = iota
	// KindCode is a runtime code mismatch, rendered as a byte length.
	KindCode
	// KindBalance is a wei balance mismatch, rendered in decimal.
	KindBalance
	// KindStorage is a mismatch of one storage slot, rendered in hex.
	KindStorage
	// KindCheckError is a state read that failed; Field names what was read.
	KindCheckError
)

func (k Kind) String() string {
	switch k {
	case KindNonce:
		return "nonce"
	case KindCode:
		return "code"
	case KindBalance:
		return "balance"
	case KindStorage:
		return "storage"
	case KindCheckError:
		return "error"
	default:
		return "unknown"
	}
}

// Difference records one mismatch between expected and actual state.
//
// Expected and Actual hold uint64 for nonces, *big.Int for balances, []byte
// for code and common.Hash for storage slots. For KindCheckError, Field is
// the dimension whose read failed and Err holds the node's message.
type Difference struct {
	Address  common.Address
	Kind     Kind
	Slot     common.Hash
	Expected interface{}
	Actual   interface{}

	// Absent is set when the account was expected not to exist.
	Absent bool
	// Detail carries extra context, such as the hex of short code.
	Detail string

	Field Kind
	Err   string
}

// NonceDiff records a nonce mismatch.
func NonceDiff(addr common.Address, expected, actual uint64) *Difference {
	return &Difference{Address: addr, Kind: KindNonce, Expected: expected, Actual: actual}
}

// BalanceDiff records a balance mismatch.
func BalanceDiff(addr common.Address, expected, actual *big.Int) *Difference {
	return &Difference{Address: addr, Kind: KindBalance, Expected: expected, Actual: actual}
}

// CodeDiff records a code mismatch.
func CodeDiff(addr common.Address, expected, actual []byte) *Difference {
	return &Difference{Address: addr, Kind: KindCode, Expected: expected, Actual: actual}
}

// StorageDiff records a storage slot mismatch.
func StorageDiff(addr common.Address, slot, expected, actual common.Hash) *Difference {
	return &Difference{Address: addr, Kind: KindStorage, Slot: slot, Expected: expected, Actual: actual}
}

// CheckErrorDiff records a failed read of field.
func CheckErrorDiff(addr common.Address, field Kind, slot common.Hash, err error) *Difference {
	return &Difference{Address: addr, Kind: KindCheckError, Field: field, Slot: slot, Err: err.Error()}
}
