package types

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EOA is an externally-owned account held by a test. Nonce is the locally
// tracked next nonce and is only advanced after a delegation transaction.
type EOA struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
	Nonce   uint64
}

// NewEOA derives the address from key.
func NewEOA(key *ecdsa.PrivateKey) *EOA {
	return &EOA{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		Key:     key,
	}
}

// Authorization is a signed statement that the signer's code pointer should
// be set to ContractAddress. V is always equal to YParity in this encoding.
type Authorization struct {
	ContractAddress common.Address
	ChainID         *big.Int
	Nonce           uint64
	YParity         uint8
	R               *big.Int
	S               *big.Int
}

// V returns the recovery value, which is the y-parity bit.
func (a Authorization) V() uint8 {
	return a.YParity
}

// Transaction is an abstract transaction description. Nil pointer fields are
// filled from network defaults by the builder; a nil AuthorizationList selects
// the conventional encoding, a non-nil one the set-code encoding.
type Transaction struct {
	Sender   *EOA
	Nonce    *uint64
	Value    *big.Int
	To       *common.Address
	GasLimit uint64
	Data     []byte

	GasPrice  *big.Int
	GasFeeCap *big.Int
	GasTipCap *big.Int

	AuthorizationList []Authorization
}

// Block is an ordered group of transactions submitted as one chain head.
type Block struct {
	Txs []*Transaction
}
