package eth

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ReceiptReader fetches receipts. A nil receipt with a nil error means the
// transaction is not included yet.
type ReceiptReader interface {
	Receipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

// InclusionTimeout is returned when a transaction was not included within
// the polling bound.
type InclusionTimeout struct {
	TxHash  common.Hash
	Timeout time.Duration
}

func (e *InclusionTimeout) Error() string {
	return fmt.Sprintf("transaction %s not included after %s", e.TxHash, e.Timeout)
}

// WaitForReceipt polls for the receipt of hash every poll until timeout.
func WaitForReceipt(ctx context.Context, r ReceiptReader, hash common.Hash, timeout, poll time.Duration) (*Receipt, error) {
	deadline := time.Now().Add(timeout)
	for {
		receipt, err := r.Receipt(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch receipt for %s: %w", hash, err)
		}
		if receipt != nil {
			return receipt, nil
		}
		if !time.Now().Before(deadline) {
			return nil, &InclusionTimeout{TxHash: hash, Timeout: timeout}
		}
		wait := poll
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
