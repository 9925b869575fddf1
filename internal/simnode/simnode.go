// Package simnode runs an in-process chain that speaks the same collaborator
// interfaces as a real node, including the test-only chain-control methods.
package simnode

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/airchains-network/state-conformance/eth"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
)

// GenesisBalance is the balance of every pre-funded account.
var GenesisBalance = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.Ether))

// Node is a simulated chain. Transactions sent through SendRawTransaction are
// mined into their own block immediately.
type Node struct {
	simulated.Client

	backend *simulated.Backend
	log     *logrus.Logger
}

// New starts a chain with each of funded holding GenesisBalance.
func New(log *logrus.Logger, funded ...common.Address) *Node {
	alloc := make(ethtypes.GenesisAlloc, len(funded))
	for _, addr := range funded {
		alloc[addr] = ethtypes.Account{Balance: new(big.Int).Set(GenesisBalance)}
	}
	backend := simulated.NewBackend(alloc)
	return &Node{Client: backend.Client(), backend: backend, log: log}
}

// Close stops the chain.
func (n *Node) Close() error {
	return n.backend.Close()
}

// SendRawTransaction submits raw and mines it.
func (n *Node) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	tx, err := n.send(ctx, raw)
	if err != nil {
		return common.Hash{}, err
	}
	head := n.backend.Commit()
	n.log.Debugf("Mined tx %s in %s", tx.Hash().Hex(), head.Hex())
	return tx.Hash(), nil
}

func (n *Node) send(ctx context.Context, raw []byte) (*ethtypes.Transaction, error) {
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	if err := n.Client.SendTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Receipt returns nil while the transaction is unknown or not yet indexed.
func (n *Node) Receipt(ctx context.Context, hash common.Hash) (*eth.Receipt, error) {
	r, err := n.Client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) || (err != nil && strings.Contains(err.Error(), "indexing is in progress")) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := &eth.Receipt{
		TxHash:    r.TxHash,
		BlockHash: r.BlockHash,
		Status:    hexutil.Uint64(r.Status),
	}
	if r.ContractAddress != (common.Address{}) {
		addr := r.ContractAddress
		out.ContractAddress = &addr
	}
	if r.Status == ethtypes.ReceiptStatusFailed {
		out.ErrorMessage = "execution reverted"
	}
	return out, nil
}

// BestHead returns the canonical head.
func (n *Node) BestHead(ctx context.Context) (common.Hash, error) {
	head, err := n.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, err
	}
	return head.Hash(), nil
}

// ProduceCustomBlock mines txs into one block on parent, reorganising the
// chain when parent is not the head. Referees have no meaning on a linear
// chain and are ignored.
func (n *Node) ProduceCustomBlock(ctx context.Context, parent common.Hash, referees []common.Hash, txs [][]byte) (common.Hash, error) {
	head, err := n.BestHead(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if head != parent {
		if err := n.backend.Fork(parent); err != nil {
			return common.Hash{}, fmt.Errorf("failed to fork at %s: %w", parent, err)
		}
	}
	for i, raw := range txs {
		if _, err := n.send(ctx, raw); err != nil {
			n.backend.Rollback()
			return common.Hash{}, fmt.Errorf("tx %d: %w", i, err)
		}
	}
	return n.backend.Commit(), nil
}

// ProduceEmptyBlocks mines count empty blocks.
func (n *Node) ProduceEmptyBlocks(ctx context.Context, count int) ([]common.Hash, error) {
	hashes := make([]common.Hash, 0, count)
	for i := 0; i < count; i++ {
		hashes = append(hashes, n.backend.Commit())
	}
	return hashes, nil
}

// BlockTransactions returns the transaction hashes of the block with hash.
func (n *Node) BlockTransactions(ctx context.Context, hash common.Hash) ([]common.Hash, error) {
	block, err := n.Client.BlockByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	hashes := make([]common.Hash, 0, len(block.Transactions()))
	for _, tx := range block.Transactions() {
		hashes = append(hashes, tx.Hash())
	}
	return hashes, nil
}
