package alloc

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/airchains-network/state-conformance/eth"
	"github.com/airchains-network/state-conformance/txbuilder"
	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
)

const (
	DefaultFundTimeout  = 120 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// DefaultFunding is the amount FundEOA transfers when none is given.
var DefaultFunding = big.NewInt(params.Ether)

// CodeType selects the bytecode container format of a deployment.
type CodeType int

const (
	Legacy CodeType = iota
	EOFv1
)

func (t CodeType) String() string {
	switch t {
	case Legacy:
		return "legacy"
	case EOFv1:
		return "eof_v1"
	default:
		return fmt.Sprintf("code_type(%d)", int(t))
	}
}

// NotSupported is returned for deployment variants the helper cannot build.
type NotSupported struct {
	Feature string
}

func (e *NotSupported) Error() string {
	return e.Feature + " is not supported"
}

// Node is the node surface the helper needs.
type Node interface {
	eth.ReceiptReader
	ChainID(ctx context.Context) (*big.Int, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
}

// Signer produces raw signed transactions. *txbuilder.Builder satisfies it.
type Signer interface {
	Raw(ctx context.Context, tx *types.Transaction) ([]byte, common.Hash, error)
}

// Contract describes a deployment.
type Contract struct {
	Code     []byte
	Balance  *big.Int
	Storage  types.Storage
	CodeType CodeType
}

// Alloc funds and deploys pre-state accounts from a genesis-controlled
// account.
type Alloc struct {
	node    Node
	signer  Signer
	genesis *types.EOA
	timeout time.Duration
	poll    time.Duration
	log     *logrus.Logger
}

// New creates an Alloc paying from genesis. Unset durations take defaults.
func New(node Node, signer Signer, genesis *types.EOA, timeout, poll time.Duration, log *logrus.Logger) *Alloc {
	if timeout <= 0 {
		timeout = DefaultFundTimeout
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Alloc{node: node, signer: signer, genesis: genesis, timeout: timeout, poll: poll, log: log}
}

// Genesis returns the funding account.
func (a *Alloc) Genesis() *types.EOA {
	return a.genesis
}

// FundEOA creates a fresh account. A nil amount funds it with DefaultFunding;
// a zero amount sends nothing. With a delegation the new account signs an
// authorization for it at nonce 0, which the genesis account submits; the
// returned account then has nonce 1.
func (a *Alloc) FundEOA(ctx context.Context, amount *big.Int, delegation *common.Address) (*types.EOA, error) {
	if amount == nil {
		amount = DefaultFunding
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, &txbuilder.SigningError{Err: err}
	}
	eoa := types.NewEOA(key)

	if amount.Sign() > 0 {
		to := eoa.Address
		if _, err := a.submit(ctx, &types.Transaction{Sender: a.genesis, To: &to, Value: amount}); err != nil {
			return nil, fmt.Errorf("failed to fund %s: %w", eoa.Address.Hex(), err)
		}
		a.log.Infof("Funded %s with %s wei", eoa.Address.Hex(), amount)
	}
	if delegation == nil {
		return eoa, nil
	}

	if err := a.delegate(ctx, key, *delegation); err != nil {
		return nil, fmt.Errorf("failed to delegate %s to %s: %w", eoa.Address.Hex(), delegation.Hex(), err)
	}
	eoa.Nonce = 1
	a.log.Infof("Delegated %s to %s", eoa.Address.Hex(), delegation.Hex())
	return eoa, nil
}

func (a *Alloc) delegate(ctx context.Context, key *ecdsa.PrivateKey, contract common.Address) error {
	chainID, err := a.node.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain id: %w", err)
	}
	auth, err := txbuilder.SignAuthorization(contract, chainID, 0, key)
	if err != nil {
		return err
	}
	to := common.Address{}
	_, err = a.submit(ctx, &types.Transaction{
		Sender:            a.genesis,
		To:                &to,
		Value:             new(big.Int),
		AuthorizationList: []types.Authorization{auth},
	})
	return err
}

// DeployContract deploys c from the genesis account and returns the new
// contract address. Storage is populated by an initcode prefix.
func (a *Alloc) DeployContract(ctx context.Context, c Contract) (common.Address, error) {
	if c.CodeType != Legacy {
		return common.Address{}, &NotSupported{Feature: c.CodeType.String() + " code"}
	}
	var prefix []byte
	if len(c.Storage) > 0 {
		prefix = StoragePrefix(c.Storage)
	}
	initcode, err := Initcode(c.Code, prefix)
	if err != nil {
		return common.Address{}, &txbuilder.BuildError{Field: "initcode", Err: err}
	}
	receipt, err := a.submit(ctx, &types.Transaction{
		Sender: a.genesis,
		Value:  c.Balance,
		Data:   initcode,
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy contract: %w", err)
	}
	if receipt.ContractAddress == nil || *receipt.ContractAddress == (common.Address{}) {
		return common.Address{}, errors.New("receipt carries no contract address")
	}
	a.log.Infof("Deployed contract %s (%d bytes, %d slots)", receipt.ContractAddress.Hex(), len(c.Code), len(c.Storage))
	return *receipt.ContractAddress, nil
}

// submit sends tx and waits for a successful receipt.
func (a *Alloc) submit(ctx context.Context, tx *types.Transaction) (*eth.Receipt, error) {
	raw, hash, err := a.signer.Raw(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := a.node.SendRawTransaction(ctx, raw); err != nil {
		return nil, err
	}
	receipt, err := eth.WaitForReceipt(ctx, a.node, hash, a.timeout, a.poll)
	if err != nil {
		return nil, err
	}
	if receipt.Failed() {
		return nil, fmt.Errorf("transaction %s failed: %s", hash.Hex(), receipt.ErrorMessage)
	}
	return receipt, nil
}
