package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostStateSetKeepsPosition(t *testing.T) {
	a := common.HexToAddress("0x01")
	b := common.HexToAddress("0x02")

	post := PostState{}.Set(a, Absent{}).Set(b, Absent{})
	post = post.Set(a, &Partial{Nonce: Uint64(3)})

	require.Len(t, post, 2)
	assert.Equal(t, a, post[0].Address)
	assert.Equal(t, b, post[1].Address)

	acc, ok := post.Get(a)
	require.True(t, ok)
	assert.Equal(t, uint64(3), *acc.(*Partial).Nonce)

	_, ok = post.Get(common.HexToAddress("0x03"))
	assert.False(t, ok)
}

func TestLegacyZeroGates(t *testing.T) {
	p := Legacy(0, nil, big.NewInt(0), StorageOf(map[uint64]uint64{1: 0}))
	assert.Nil(t, p.Nonce)
	assert.Nil(t, p.Code)
	assert.Nil(t, p.Balance)
	assert.Len(t, p.Storage, 1)

	p = Legacy(2, []byte{0x00}, big.NewInt(5), nil)
	require.NotNil(t, p.Nonce)
	assert.Equal(t, uint64(2), *p.Nonce)
	assert.Equal(t, []byte{0x00}, p.Code)
	assert.Equal(t, int64(5), p.Balance.Int64())
}

func TestNoCodeIsCheckedEmpty(t *testing.T) {
	code := NoCode()
	assert.NotNil(t, code)
	assert.Empty(t, code)
}

func TestStorageKeysSorted(t *testing.T) {
	s := StorageOf(map[uint64]uint64{300: 1, 2: 2, 1: 3})
	keys := s.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, common.BigToHash(big.NewInt(1)), keys[0])
	assert.Equal(t, common.BigToHash(big.NewInt(2)), keys[1])
	assert.Equal(t, common.BigToHash(big.NewInt(300)), keys[2])
	assert.Equal(t, common.BigToHash(big.NewInt(3)), s[keys[0]])
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "nonce", KindNonce.String())
	assert.Equal(t, "storage", KindStorage.String())
	assert.Equal(t, "error", KindCheckError.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
