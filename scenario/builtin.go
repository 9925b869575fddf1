package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/airchains-network/state-conformance/alloc"
	"github.com/airchains-network/state-conformance/dispatch"
	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ReturnOne is runtime code that returns the word 1.
var ReturnOne = common.FromHex("0x600160005260206000f3")

func init() {
	register(Scenario{Name: "a", Description: "fresh unfunded account is in default state", Run: defaultState})
	register(Scenario{Name: "b", Description: "delegated account reports the 0xef0100 designator (or the contract code with resolve_delegated_code) and consumes one nonce", Run: delegation})
	register(Scenario{Name: "c", Description: "deployed contract starts with its initcode storage", Run: deployStorage})
	register(Scenario{Name: "d", Description: "two custom blocks advance the sender nonce by two", Run: blockBatch})
	register(Scenario{Name: "e", Description: "dispatching a tx together with blocks is rejected", Run: invalidUsage})
}

func defaultState(ctx context.Context, env *Env) error {
	eoa, err := env.Alloc.FundEOA(ctx, new(big.Int), nil)
	if err != nil {
		return err
	}
	if _, err := env.Runner.Check(ctx, types.PostState{}.Set(eoa.Address, types.Absent{})); err != nil {
		return err
	}
	post := types.PostState{}.Set(eoa.Address, &types.Partial{
		Nonce:   types.Uint64(0),
		Code:    types.NoCode(),
		Balance: new(big.Int),
	})
	_, err = env.Runner.Check(ctx, post)
	return err
}

func delegation(ctx context.Context, env *Env) error {
	contract, err := env.Alloc.DeployContract(ctx, alloc.Contract{Code: ReturnOne})
	if err != nil {
		return err
	}
	eoa, err := env.Alloc.FundEOA(ctx, nil, &contract)
	if err != nil {
		return err
	}
	if eoa.Nonce != 1 {
		return fmt.Errorf("delegated account %s tracks nonce %d, want 1", eoa.Address.Hex(), eoa.Nonce)
	}

	code := ethtypes.AddressToDelegation(contract)
	if env.ResolveDelegatedCode {
		if code, err = env.Reader.CodeAt(ctx, contract, nil); err != nil {
			return fmt.Errorf("failed to read code of %s: %w", contract.Hex(), err)
		}
	}

	// Calling the delegated account runs the contract's code and leaves
	// the account itself untouched.
	to := eoa.Address
	call := &types.Transaction{Sender: env.Alloc.Genesis(), To: &to, Value: new(big.Int)}
	post := types.PostState{}.
		Set(eoa.Address, &types.Partial{Nonce: types.Uint64(eoa.Nonce), Code: code}).
		Set(contract, &types.Partial{Code: ReturnOne})
	res, err := env.Runner.Run(ctx, dispatch.Work{Tx: call}, post)
	if err != nil {
		return err
	}
	if res.Outcome.Failed {
		return fmt.Errorf("call into delegated account failed: %s", res.Outcome.ErrorMessage)
	}
	return nil
}

func deployStorage(ctx context.Context, env *Env) error {
	storage := types.StorageOf(map[uint64]uint64{1: 42})
	contract, err := env.Alloc.DeployContract(ctx, alloc.Contract{Code: ReturnOne, Storage: storage})
	if err != nil {
		return err
	}
	post := types.PostState{}.Set(contract, &types.Partial{
		Nonce:   types.Uint64(1),
		Code:    ReturnOne,
		Storage: storage,
	})
	_, err = env.Runner.Check(ctx, post)
	return err
}

func blockBatch(ctx context.Context, env *Env) error {
	sender, err := env.Alloc.FundEOA(ctx, nil, nil)
	if err != nil {
		return err
	}
	recipient, err := freshAddress()
	if err != nil {
		return err
	}
	transfer := func() *types.Transaction {
		return &types.Transaction{Sender: sender, To: &recipient, Value: big.NewInt(1)}
	}
	blocks := []types.Block{
		{Txs: []*types.Transaction{transfer()}},
		{Txs: []*types.Transaction{transfer()}},
	}
	post := types.PostState{}.
		Set(sender.Address, &types.Partial{Nonce: types.Uint64(sender.Nonce + 2)}).
		Set(recipient, &types.Partial{Nonce: types.Uint64(0), Balance: big.NewInt(2)})
	_, err = env.Runner.Run(ctx, dispatch.Work{Blocks: blocks}, post)
	return err
}

func invalidUsage(ctx context.Context, env *Env) error {
	to := common.Address{}
	tx := &types.Transaction{Sender: env.Alloc.Genesis(), To: &to}
	w := dispatch.Work{Tx: tx, Blocks: []types.Block{{Txs: []*types.Transaction{tx}}}}

	_, err := env.Runner.Run(ctx, w, nil)
	var usage *dispatch.InvalidUsage
	if errors.As(err, &usage) {
		env.Log.Debugf("Rejected as expected: %v", usage)
		return nil
	}
	if err == nil {
		return errors.New("dispatching both tx and blocks was accepted")
	}
	return fmt.Errorf("expected invalid usage, got: %w", err)
}

func freshAddress() (common.Address, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
