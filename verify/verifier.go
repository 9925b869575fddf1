package verify

import (
	"context"
	"math/big"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// DefaultShortCodeThreshold is the code size below which mismatching code is
// recorded in full.
const DefaultShortCodeThreshold = 100

// StateReader reads account fields from the node. *ethclient.Client
// satisfies it.
type StateReader interface {
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// Verifier compares actual node state against a PostState.
type Verifier struct {
	reader    StateReader
	shortCode int
	log       *logrus.Logger
}

// NewVerifier creates a Verifier. A non-positive shortCode takes the default.
func NewVerifier(reader StateReader, shortCode int, log *logrus.Logger) *Verifier {
	if shortCode <= 0 {
		shortCode = DefaultShortCodeThreshold
	}
	return &Verifier{reader: reader, shortCode: shortCode, log: log}
}

type differences []types.Difference

func (d *differences) add(diff *types.Difference) {
	if diff != nil {
		*d = append(*d, *diff)
	}
}

// Verify checks every address of post in order and returns all differences.
// It never stops early: read failures are recorded and checking continues.
func (v *Verifier) Verify(ctx context.Context, post types.PostState) []types.Difference {
	var diffs differences
	for _, entry := range post {
		before := len(diffs)
		switch acc := entry.Account.(type) {
		case nil, types.Absent, *types.Absent:
			v.checkAbsent(ctx, &diffs, entry.Address)
		case *types.Partial:
			if acc == nil {
				v.checkAbsent(ctx, &diffs, entry.Address)
				break
			}
			v.checkPartial(ctx, &diffs, entry.Address, acc)
		}
		v.log.Debugf("Verified %s: %d differences", entry.Address.Hex(), len(diffs)-before)
	}
	return diffs
}

func (v *Verifier) checkAbsent(ctx context.Context, diffs *differences, addr common.Address) {
	diffs.add(absent(checkNonce(ctx, v.reader, addr, 0)))
	diffs.add(absent(checkCode(ctx, v.reader, addr, []byte{}, v.shortCode)))
	diffs.add(absent(checkBalance(ctx, v.reader, addr, new(big.Int))))
}

func (v *Verifier) checkPartial(ctx context.Context, diffs *differences, addr common.Address, p *types.Partial) {
	if p.Nonce != nil {
		diffs.add(checkNonce(ctx, v.reader, addr, *p.Nonce))
	}
	if p.Code != nil {
		diffs.add(checkCode(ctx, v.reader, addr, p.Code, v.shortCode))
	}
	if p.Balance != nil {
		diffs.add(checkBalance(ctx, v.reader, addr, p.Balance))
	}
	for _, slot := range p.Storage.Keys() {
		diffs.add(checkSlot(ctx, v.reader, addr, slot, p.Storage[slot]))
	}
}
