package eth

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	DefaultBestHeadMethod    = "cfx_getBestBlockHash"
	DefaultCustomBlockMethod = "test_generateCustomBlock"
	DefaultEmptyBlocksMethod = "test_generateEmptyBlocks"
)

// ChainMethods names the test-only chain-control RPC methods of the node.
type ChainMethods struct {
	BestHead    string
	CustomBlock string
	EmptyBlocks string
}

func (m ChainMethods) withDefaults() ChainMethods {
	if m.BestHead == "" {
		m.BestHead = DefaultBestHeadMethod
	}
	if m.CustomBlock == "" {
		m.CustomBlock = DefaultCustomBlockMethod
	}
	if m.EmptyBlocks == "" {
		m.EmptyBlocks = DefaultEmptyBlocksMethod
	}
	return m
}

// Receipt is the subset of a transaction receipt the dispatcher needs.
// ErrorMessage is filled by nodes that report an execution error string.
type Receipt struct {
	TxHash          common.Hash     `json:"transactionHash"`
	BlockHash       common.Hash     `json:"blockHash"`
	Status          hexutil.Uint64  `json:"status"`
	ContractAddress *common.Address `json:"contractAddress"`
	ErrorMessage    string          `json:"txErrorMsg"`
}

// Failed reports whether the node marked the transaction as failed.
func (r *Receipt) Failed() bool {
	return r.Status == 0
}

// BestHead returns the block currently selected as the chain tip.
func (c *Client) BestHead(ctx context.Context) (common.Hash, error) {
	var hash common.Hash
	if err := c.Rpc.CallContext(ctx, &hash, c.methods.BestHead); err != nil {
		return common.Hash{}, fmt.Errorf("failed to read best head: %w", err)
	}
	return hash, nil
}

// ProduceCustomBlock asks the node to build a block on parent with the given
// referees carrying exactly txs, and returns the new block hash.
func (c *Client) ProduceCustomBlock(ctx context.Context, parent common.Hash, referees []common.Hash, txs [][]byte) (common.Hash, error) {
	encoded, err := EncodeRawTxs(txs)
	if err != nil {
		return common.Hash{}, err
	}
	if referees == nil {
		referees = []common.Hash{}
	}
	var hash common.Hash
	if err := c.Rpc.CallContext(ctx, &hash, c.methods.CustomBlock, parent, referees, hexutil.Bytes(encoded)); err != nil {
		return common.Hash{}, fmt.Errorf("failed to produce custom block on %s: %w", parent, err)
	}
	return hash, nil
}

// ProduceEmptyBlocks extends the chain by count blocks.
func (c *Client) ProduceEmptyBlocks(ctx context.Context, count int) ([]common.Hash, error) {
	var hashes []common.Hash
	if err := c.Rpc.CallContext(ctx, &hashes, c.methods.EmptyBlocks, count); err != nil {
		return nil, fmt.Errorf("failed to produce %d blocks: %w", count, err)
	}
	return hashes, nil
}

// EncodeRawTxs RLP-encodes a list of raw signed transactions the way the
// custom-block RPC expects them.
func EncodeRawTxs(txs [][]byte) ([]byte, error) {
	if txs == nil {
		txs = [][]byte{}
	}
	encoded, err := rlp.EncodeToBytes(txs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transactions: %w", err)
	}
	return encoded, nil
}
