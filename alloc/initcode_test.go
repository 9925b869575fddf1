package alloc

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushMinimalWidth(t *testing.T) {
	assert.Equal(t, []byte{byte(vm.PUSH1), 0x00}, push(common.Hash{}))
	assert.Equal(t, []byte{byte(vm.PUSH1), 0x2a}, push(common.BigToHash(big.NewInt(42))))
	assert.Equal(t, []byte{byte(vm.PUSH2), 0x01, 0x00}, push(common.BigToHash(big.NewInt(256))))

	full := common.HexToHash("0xff00000000000000000000000000000000000000000000000000000000000001")
	out := push(full)
	assert.Equal(t, byte(vm.PUSH32), out[0])
	assert.Equal(t, full[:], out[1:])
}

func TestStoragePrefixOrder(t *testing.T) {
	prefix := StoragePrefix(types.StorageOf(map[uint64]uint64{2: 7, 1: 42}))
	want := []byte{
		byte(vm.PUSH1), 42, byte(vm.PUSH1), 1, byte(vm.SSTORE),
		byte(vm.PUSH1), 7, byte(vm.PUSH1), 2, byte(vm.SSTORE),
	}
	assert.Equal(t, want, prefix)
}

func TestInitcodeLayout(t *testing.T) {
	code := []byte{0x60, 0x01, 0x00}
	prefix := []byte{byte(vm.PUSH1), 0x2a, byte(vm.PUSH1), 0x01, byte(vm.SSTORE)}

	initcode, err := Initcode(code, prefix)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(initcode, prefix))
	assert.True(t, bytes.HasSuffix(initcode, code))
	assert.Len(t, initcode, len(prefix)+deployHeaderLen+len(code))

	header := initcode[len(prefix) : len(prefix)+deployHeaderLen]
	assert.Equal(t, []byte{
		byte(vm.PUSH2), 0x00, 0x03,
		byte(vm.DUP1),
		byte(vm.PUSH2), 0x00, byte(len(prefix) + deployHeaderLen),
		byte(vm.PUSH1), 0x00,
		byte(vm.CODECOPY),
		byte(vm.PUSH1), 0x00,
		byte(vm.RETURN),
	}, header)
}

func TestInitcodeWithoutPrefix(t *testing.T) {
	initcode, err := Initcode(nil, nil)
	require.NoError(t, err)
	assert.Len(t, initcode, deployHeaderLen)
}

func TestInitcodeTooLarge(t *testing.T) {
	_, err := Initcode(make([]byte, 1<<16), nil)
	require.Error(t, err)
}
