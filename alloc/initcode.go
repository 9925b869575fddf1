package alloc

import (
	"fmt"
	"math"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
)

// deployHeaderLen is the size of the code-copy header emitted by Initcode:
// PUSH2 len, DUP1, PUSH2 offset, PUSH1 0, CODECOPY, PUSH1 0, RETURN.
const deployHeaderLen = 13

// StoragePrefix returns bytecode that stores every entry of storage, in
// ascending key order.
func StoragePrefix(storage types.Storage) []byte {
	var code []byte
	for _, key := range storage.Keys() {
		code = append(code, push(storage[key])...)
		code = append(code, push(key)...)
		code = append(code, byte(vm.SSTORE))
	}
	return code
}

// Initcode returns creation code that runs prefix and then returns code as
// the deployed runtime code.
func Initcode(code, prefix []byte) ([]byte, error) {
	if len(code) > math.MaxUint16 {
		return nil, fmt.Errorf("runtime code too large: %d bytes", len(code))
	}
	offset := len(prefix) + deployHeaderLen
	if offset > math.MaxUint16 {
		return nil, fmt.Errorf("initcode prefix too large: %d bytes", len(prefix))
	}
	out := make([]byte, 0, offset+len(code))
	out = append(out, prefix...)
	out = append(out,
		byte(vm.PUSH2), byte(len(code)>>8), byte(len(code)),
		byte(vm.DUP1),
		byte(vm.PUSH2), byte(offset>>8), byte(offset),
		byte(vm.PUSH1), 0x00,
		byte(vm.CODECOPY),
		byte(vm.PUSH1), 0x00,
		byte(vm.RETURN),
	)
	return append(out, code...), nil
}

// push emits the shortest PUSHn for v; zero is PUSH1 0x00.
func push(v common.Hash) []byte {
	data := trimLeft(v[:])
	if len(data) == 0 {
		return []byte{byte(vm.PUSH1), 0x00}
	}
	op := vm.PUSH1 + vm.OpCode(len(data)-1)
	return append([]byte{byte(op)}, data...)
}

func trimLeft(b []byte) []byte {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}
