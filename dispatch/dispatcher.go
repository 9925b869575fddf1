package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/airchains-network/state-conformance/eth"
	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	DefaultReceiptTimeout = 1 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultExtraBlocks    = 4
)

// Node is the node surface the dispatcher drives: raw submission, receipts
// and the test-only chain-control extension. *eth.Client satisfies it.
type Node interface {
	eth.ReceiptReader
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	BestHead(ctx context.Context) (common.Hash, error)
	ProduceCustomBlock(ctx context.Context, parent common.Hash, referees []common.Hash, txs [][]byte) (common.Hash, error)
	ProduceEmptyBlocks(ctx context.Context, count int) ([]common.Hash, error)
	BlockTransactions(ctx context.Context, hash common.Hash) ([]common.Hash, error)
}

// Signer produces raw signed transactions. *txbuilder.Builder satisfies it.
type Signer interface {
	Raw(ctx context.Context, tx *types.Transaction) ([]byte, common.Hash, error)
}

// Config bounds the inclusion wait and sets how far the chain is extended
// after a block sequence.
type Config struct {
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
	ExtraBlocks    int
}

// DefaultConfig returns the dispatcher defaults.
func DefaultConfig() Config {
	return Config{
		ReceiptTimeout: DefaultReceiptTimeout,
		PollInterval:   DefaultPollInterval,
		ExtraBlocks:    DefaultExtraBlocks,
	}
}

// Work is what one verification call submits: exactly one of Tx or Blocks.
type Work struct {
	Tx     *types.Transaction
	Blocks []types.Block
}

// Outcome describes what the dispatcher submitted. A failed receipt is not
// an error: Failed and ErrorMessage carry it for the caller to surface.
type Outcome struct {
	TxHash       common.Hash
	Receipt      *eth.Receipt
	Failed       bool
	ErrorMessage string

	Head        common.Hash
	BlockHashes []common.Hash
	Included    []common.Hash
}

// InvalidUsage reports a call that supplied both or neither of Tx and Blocks.
type InvalidUsage struct {
	Reason string
}

func (e *InvalidUsage) Error() string {
	return "invalid dispatch: " + e.Reason
}

// Dispatcher submits work to a node.
type Dispatcher struct {
	node   Node
	signer Signer
	cfg    Config
	log    *logrus.Logger
}

// NewDispatcher creates a Dispatcher. Unset (non-positive) fields take
// defaults, so a block sequence is always followed by extra blocks.
func NewDispatcher(node Node, signer Signer, cfg Config, log *logrus.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = def.ReceiptTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ExtraBlocks <= 0 {
		cfg.ExtraBlocks = def.ExtraBlocks
	}
	return &Dispatcher{node: node, signer: signer, cfg: cfg, log: log}
}

// Dispatch submits w in single-transaction or block-batch mode.
func (d *Dispatcher) Dispatch(ctx context.Context, w Work) (*Outcome, error) {
	switch {
	case w.Tx == nil && len(w.Blocks) == 0:
		return nil, &InvalidUsage{Reason: "tx or blocks must be provided"}
	case w.Tx != nil && len(w.Blocks) > 0:
		return nil, &InvalidUsage{Reason: "tx and blocks cannot both be provided"}
	case w.Tx != nil:
		return d.sendTx(ctx, w.Tx)
	default:
		return d.sendBlocks(ctx, w.Blocks)
	}
}

func (d *Dispatcher) sendTx(ctx context.Context, tx *types.Transaction) (*Outcome, error) {
	raw, hash, err := d.signer.Raw(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := d.node.SendRawTransaction(ctx, raw); err != nil {
		return nil, fmt.Errorf("failed to send transaction %s: %w", hash.Hex(), err)
	}
	d.log.Infof("Sent tx %s", hash.Hex())

	receipt, err := eth.WaitForReceipt(ctx, d.node, hash, d.cfg.ReceiptTimeout, d.cfg.PollInterval)
	if err != nil {
		return nil, err
	}
	out := &Outcome{TxHash: hash, Receipt: receipt}
	if receipt.Failed() {
		out.Failed = true
		out.ErrorMessage = receipt.ErrorMessage
		if out.ErrorMessage == "" {
			out.ErrorMessage = "No error message"
		}
		d.log.Warnf("Transaction failed: %s", hash.Hex())
		d.log.Warnf("TxErrorMsg: %s", out.ErrorMessage)
	}
	return out, nil
}

// sendBlocks builds each block on the previous head, then extends the chain
// so the sequence leaves the uncertain tip window.
func (d *Dispatcher) sendBlocks(ctx context.Context, blocks []types.Block) (*Outcome, error) {
	head, err := d.node.BestHead(ctx)
	if err != nil {
		return nil, err
	}
	out := &Outcome{}
	for i, block := range blocks {
		txs, err := d.assignNonces(ctx, block.Txs)
		if err != nil {
			return nil, err
		}
		raws := make([][]byte, 0, len(txs))
		for _, tx := range txs {
			raw, _, err := d.signer.Raw(ctx, tx)
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", i, err)
			}
			raws = append(raws, raw)
		}
		next, err := d.node.ProduceCustomBlock(ctx, head, nil, raws)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		d.log.Infof("Produced block %d/%d %s on %s with %d txs", i+1, len(blocks), next.Hex(), head.Hex(), len(raws))
		out.BlockHashes = append(out.BlockHashes, next)
		head = next
	}
	out.Head = head

	if d.cfg.ExtraBlocks > 0 {
		if _, err := d.node.ProduceEmptyBlocks(ctx, d.cfg.ExtraBlocks); err != nil {
			return nil, err
		}
		d.log.Debugf("Produced %d extra blocks after %s", d.cfg.ExtraBlocks, head.Hex())
	}

	included, err := d.node.BlockTransactions(ctx, head)
	if err != nil {
		return nil, fmt.Errorf("failed to read back block %s: %w", head.Hex(), err)
	}
	out.Included = included
	if last := blocks[len(blocks)-1]; len(included) != len(last.Txs) {
		d.log.Warnf("Block %s carries %d txs, submitted %d", head.Hex(), len(included), len(last.Txs))
	}
	return out, nil
}

// assignNonces gives transactions without a nonce consecutive nonces per
// sender, starting at the sender's pending nonce. The caller's values are
// not modified.
func (d *Dispatcher) assignNonces(ctx context.Context, txs []*types.Transaction) ([]*types.Transaction, error) {
	next := make(map[common.Address]uint64)
	out := make([]*types.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx == nil || tx.Sender == nil {
			out = append(out, tx)
			continue
		}
		addr := tx.Sender.Address
		if tx.Nonce != nil {
			next[addr] = *tx.Nonce + 1
			out = append(out, tx)
			continue
		}
		n, ok := next[addr]
		if !ok {
			pending, err := d.node.PendingNonceAt(ctx, addr)
			if err != nil {
				return nil, fmt.Errorf("failed to read pending nonce of %s: %w", addr.Hex(), err)
			}
			n = pending
		}
		cp := *tx
		cp.Nonce = types.Uint64(n)
		next[addr] = n + 1
		out = append(out, &cp)
	}
	return out, nil
}
