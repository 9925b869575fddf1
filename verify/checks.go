package verify

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
)

// Each check reads one field at the latest block and returns the difference
// it found, or nil. A failed read is itself a difference.

func checkNonce(ctx context.Context, r StateReader, addr common.Address, expected uint64) *types.Difference {
	actual, err := r.NonceAt(ctx, addr, nil)
	if err != nil {
		return types.CheckErrorDiff(addr, types.KindNonce, common.Hash{}, err)
	}
	if actual != expected {
		return types.NonceDiff(addr, expected, actual)
	}
	return nil
}

func checkBalance(ctx context.Context, r StateReader, addr common.Address, expected *big.Int) *types.Difference {
	actual, err := r.BalanceAt(ctx, addr, nil)
	if err != nil {
		return types.CheckErrorDiff(addr, types.KindBalance, common.Hash{}, err)
	}
	if actual == nil {
		actual = new(big.Int)
	}
	if actual.Cmp(expected) != 0 {
		return types.BalanceDiff(addr, expected, actual)
	}
	return nil
}

func checkCode(ctx context.Context, r StateReader, addr common.Address, expected []byte, shortCode int) *types.Difference {
	actual, err := r.CodeAt(ctx, addr, nil)
	if err != nil {
		return types.CheckErrorDiff(addr, types.KindCode, common.Hash{}, err)
	}
	if bytes.Equal(actual, expected) {
		return nil
	}
	d := types.CodeDiff(addr, common.CopyBytes(expected), actual)
	if len(expected) < shortCode && len(actual) < shortCode {
		d.Detail = fmt.Sprintf("expected code: 0x%x, actual code: 0x%x", expected, actual)
	}
	return d
}

func checkSlot(ctx context.Context, r StateReader, addr common.Address, slot, expected common.Hash) *types.Difference {
	raw, err := r.StorageAt(ctx, addr, slot, nil)
	if err != nil {
		return types.CheckErrorDiff(addr, types.KindStorage, slot, err)
	}
	actual := common.BytesToHash(raw)
	if actual != expected {
		return types.StorageDiff(addr, slot, expected, actual)
	}
	return nil
}

func absent(d *types.Difference) *types.Difference {
	if d != nil && d.Kind != types.KindCheckError {
		d.Absent = true
	}
	return d
}
