package types

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Account is an expected post-state for one address. It is either Absent
// (the account must not exist) or a Partial specification. A nil Account,
// including a nil *Partial, is treated as Absent.
type Account interface {
	isAccount()
}

// Absent expects the account to be in its default state: zero nonce, empty
// code and zero balance.
type Absent struct{}

// Partial expects only the fields that are set. A nil Nonce or Balance is not
// checked; a nil Code is not checked while an empty non-nil Code requires the
// account to have no code. Every key in Storage is checked.
type Partial struct {
	Nonce   *uint64
	Code    []byte
	Balance *big.Int
	Storage Storage
}

func (Absent) isAccount()   {}
func (*Partial) isAccount() {}

// Uint64 returns a pointer to n, for use in Partial.Nonce.
func Uint64(n uint64) *uint64 {
	return &n
}

// NoCode is the explicit "must have no code" expectation.
func NoCode() []byte {
	return []byte{}
}

// Legacy builds a Partial with zero-gated checks: the nonce is checked only
// when non-zero, the code only when non-empty and the balance only when
// non-zero. Storage entries are always checked.
func Legacy(nonce uint64, code []byte, balance *big.Int, storage Storage) *Partial {
	p := &Partial{Storage: storage}
	if nonce != 0 {
		p.Nonce = Uint64(nonce)
	}
	if len(code) > 0 {
		p.Code = common.CopyBytes(code)
	}
	if balance != nil && balance.Sign() != 0 {
		p.Balance = new(big.Int).Set(balance)
	}
	return p
}

// Storage maps slot keys to expected values.
type Storage map[common.Hash]common.Hash

// StorageOf builds a Storage from small integer keys and values.
func StorageOf(entries map[uint64]uint64) Storage {
	s := make(Storage, len(entries))
	for k, v := range entries {
		s.SetUint(k, v)
	}
	return s
}

// SetUint sets slot key to value.
func (s Storage) SetUint(key, value uint64) {
	s[common.BigToHash(new(big.Int).SetUint64(key))] = common.BigToHash(new(big.Int).SetUint64(value))
}

// Keys returns the slot keys in ascending order.
func (s Storage) Keys() []common.Hash {
	keys := make([]common.Hash, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// AccountState pairs an address with its expectation.
type AccountState struct {
	Address common.Address
	Account Account
}

// PostState is an ordered mapping from address to expected account.
// Verification walks it in insertion order.
type PostState []AccountState

// Set adds or replaces the expectation for addr, keeping the original
// position on replace.
func (p PostState) Set(addr common.Address, acc Account) PostState {
	for i := range p {
		if p[i].Address == addr {
			p[i].Account = acc
			return p
		}
	}
	return append(p, AccountState{Address: addr, Account: acc})
}

// Get returns the expectation for addr.
func (p PostState) Get(addr common.Address) (Account, bool) {
	for _, entry := range p {
		if entry.Address == addr {
			return entry.Account, true
		}
	}
	return nil, false
}
