package report

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xA11CE00000000000000000000000000000001234")
	bob   = common.HexToAddress("0xB0B0000000000000000000000000000000005678")
)

func TestCheckNoDifferences(t *testing.T) {
	assert.NoError(t, Check(types.PostState{}.Set(alice, types.Absent{}), nil))
}

func TestShortAddress(t *testing.T) {
	s := ShortAddress(alice)
	assert.Len(t, s, 13)
	assert.Equal(t, alice.Hex()[:6]+"..."+alice.Hex()[38:], s)
}

func TestValueFormatting(t *testing.T) {
	assert.Equal(t, "7", Value(types.KindNonce, uint64(7)))
	assert.Equal(t, "1000000000000000000", Value(types.KindBalance, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)))
	assert.Equal(t, "3 bytes", Value(types.KindCode, []byte{1, 2, 3}))
	assert.Equal(t, "0 bytes", Value(types.KindCode, []byte(nil)))
	assert.Equal(t, "0x2a", Value(types.KindStorage, common.BigToHash(big.NewInt(42))))
	assert.Equal(t, "0x0", Value(types.KindStorage, common.Hash{}))
}

func TestTableIsFixedWidth(t *testing.T) {
	diffs := []types.Difference{
		*types.NonceDiff(alice, 1, 2),
		*types.BalanceDiff(alice, big.NewInt(1), new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)),
		*types.CodeDiff(bob, []byte{0x01}, nil),
		*types.StorageDiff(bob, common.BigToHash(big.NewInt(1)), common.BigToHash(big.NewInt(42)), common.Hash{}),
		*types.CheckErrorDiff(bob, types.KindNonce, common.Hash{}, errors.New("timeout")),
	}
	post := types.PostState{}.Set(alice, &types.Partial{}).Set(bob, &types.Partial{})

	lines := strings.Split(Table(post, diffs), "\n")
	require.Len(t, lines, 3+len(diffs)+1)
	for _, line := range lines {
		assert.Len(t, line, len(border), line)
	}
	assert.Equal(t, "+----------------+----------+------------------+------------------+", lines[0])
	assert.Equal(t, "| Address        | Type     | Expected         | Actual           |", lines[1])
	assert.Contains(t, lines[3], "| nonce    | 1                | 2                |")
	assert.Contains(t, lines[4], "| balance  | 1                | 10000000000000.. |")
	assert.Contains(t, lines[5], "| code     | 1 bytes          | 0 bytes          |")
	assert.Contains(t, lines[6], "| slot 0x1 | 0x2a             | 0x0              |")
	assert.Contains(t, lines[7], "| nonce    | -                | Check failed     |")
}

func TestTableFollowsPostOrder(t *testing.T) {
	diffs := []types.Difference{
		*types.NonceDiff(bob, 1, 0),
		*types.NonceDiff(alice, 1, 0),
	}
	post := types.PostState{}.Set(alice, &types.Partial{}).Set(bob, &types.Partial{})

	lines := strings.Split(Table(post, diffs), "\n")
	assert.True(t, strings.HasPrefix(lines[3], "| "+ShortAddress(alice)))
	assert.True(t, strings.HasPrefix(lines[4], "| "+ShortAddress(bob)))
}

func TestCheckAggregatesDifferences(t *testing.T) {
	absentNonce := types.NonceDiff(alice, 0, 3)
	absentNonce.Absent = true
	code := types.CodeDiff(bob, []byte{0xbb}, []byte{0xaa})
	code.Detail = "expected code: 0xbb, actual code: 0xaa"
	diffs := []types.Difference{*absentNonce, *code}
	post := types.PostState{}.Set(alice, types.Absent{}).Set(bob, &types.Partial{Code: []byte{0xbb}})

	err := Check(post, diffs)
	var failed *VerificationFailed
	require.ErrorAs(t, err, &failed)
	assert.Len(t, failed.Differences, 2)

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "\nState validation failed, found the following differences:\n"))
	assert.Contains(t, msg, "Non-existent account "+alice.Hex()+" should have zero nonce, actual=3")
	assert.Contains(t, msg, "Account "+bob.Hex()+" code mismatch: expected length=1, actual length=1 (expected code: 0xbb, actual code: 0xaa)")
	assert.Contains(t, msg, "State Differences Table:")
	assert.Equal(t, msg, Message(post, diffs))
}

func TestDescribeCheckError(t *testing.T) {
	d := types.CheckErrorDiff(alice, types.KindStorage, common.BigToHash(big.NewInt(5)), errors.New("boom"))
	assert.Equal(t, "Error checking storage slot 0x5 for account "+alice.Hex()+": boom", Describe(*d))
}
