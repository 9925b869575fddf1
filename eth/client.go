package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps both rpc.Client and ethclient.Client for node interactions.
// Eth serves the standard state reads and fee defaults; Rpc serves raw
// submission, receipts with node-specific fields and the chain-control
// extension.
type Client struct {
	Rpc *rpc.Client
	Eth *ethclient.Client

	methods ChainMethods
}

// NewClient dials url once and shares the connection between both clients.
func NewClient(url string, methods ChainMethods) (*Client, error) {
	rpcClient, err := rpc.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to node RPC %s: %w", url, err)
	}
	return &Client{
		Rpc:     rpcClient,
		Eth:     ethclient.NewClient(rpcClient),
		methods: methods.withDefaults(),
	}, nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	if c.Rpc != nil {
		c.Rpc.Close()
	}
}

// ChainID returns the chain id used for transaction signing.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.Eth.ChainID(ctx)
}

// PendingNonceAt returns the next nonce of account including pending
// transactions.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.Eth.PendingNonceAt(ctx, account)
}

// SendRawTransaction submits signed transaction bytes.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.Rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Receipt returns the receipt for hash, or nil if the transaction is not
// included yet.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var r *Receipt
	if err := c.Rpc.CallContext(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	return r, nil
}

// BlockTransactions returns the transaction hashes of the block with hash.
func (c *Client) BlockTransactions(ctx context.Context, hash common.Hash) ([]common.Hash, error) {
	var block *struct {
		Transactions []common.Hash `json:"transactions"`
	}
	if err := c.Rpc.CallContext(ctx, &block, "eth_getBlockByHash", hash, false); err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("block %s not found", hash)
	}
	return block.Transactions, nil
}
