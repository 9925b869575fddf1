package scenario

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/airchains-network/state-conformance/alloc"
	"github.com/airchains-network/state-conformance/dispatch"
	"github.com/airchains-network/state-conformance/internal/simnode"
	"github.com/airchains-network/state-conformance/report"
	"github.com/airchains-network/state-conformance/statetest"
	"github.com/airchains-network/state-conformance/txbuilder"
	"github.com/airchains-network/state-conformance/types"
	"github.com/airchains-network/state-conformance/verify"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T) *Env {
	log := logrus.New()
	log.SetOutput(io.Discard)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	genesis := types.NewEOA(key)

	node := simnode.New(log, genesis.Address)
	t.Cleanup(func() { node.Close() })

	builder := txbuilder.NewBuilder(node, log)
	d := dispatch.NewDispatcher(node, builder, dispatch.Config{
		ReceiptTimeout: 5 * time.Second,
		PollInterval:   10 * time.Millisecond,
		ExtraBlocks:    dispatch.DefaultExtraBlocks,
	}, log)
	return &Env{
		Alloc:  alloc.New(node, builder, genesis, 5*time.Second, 10*time.Millisecond, log),
		Runner: statetest.NewRunner(d, verify.NewVerifier(node, 0, log), log),
		Reader: node,
		Log:    log,
	}
}

func TestBuiltinScenariosPass(t *testing.T) {
	for _, s := range All() {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, s.Run(context.Background(), newEnv(t)))
		})
	}
}

func TestDelegationResolvedCodeMismatch(t *testing.T) {
	env := newEnv(t)
	env.ResolveDelegatedCode = true

	// The simulated chain reports the delegation designator, not the
	// delegate's code.
	err := delegation(context.Background(), env)
	var failed *report.VerificationFailed
	require.ErrorAs(t, err, &failed)
	require.Len(t, failed.Differences, 1)
	assert.Equal(t, types.KindCode, failed.Differences[0].Kind)
}

func TestDelegationDescriptionNamesCodeMode(t *testing.T) {
	picked, err := Select([]string{"b"})
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Contains(t, picked[0].Description, "designator")
	assert.Contains(t, picked[0].Description, "resolve_delegated_code")
}

func TestFundedAccountIsNotAbsent(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	eoa, err := env.Alloc.FundEOA(ctx, nil, nil)
	require.NoError(t, err)

	_, err = env.Runner.Check(ctx, types.PostState{}.Set(eoa.Address, types.Absent{}))
	var failed *report.VerificationFailed
	require.ErrorAs(t, err, &failed)
	require.Len(t, failed.Differences, 1)
	d := failed.Differences[0]
	assert.Equal(t, types.KindBalance, d.Kind)
	assert.True(t, d.Absent)
	assert.Equal(t, 0, alloc.DefaultFunding.Cmp(d.Actual.(*big.Int)))
}

func TestSingleTxNonceAdvances(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	sender, err := env.Alloc.FundEOA(ctx, nil, nil)
	require.NoError(t, err)
	to := env.Alloc.Genesis().Address
	tx := &types.Transaction{Sender: sender, To: &to, Value: big.NewInt(1)}

	res, err := env.Runner.Run(ctx, dispatch.Work{Tx: tx}, types.PostState{}.Set(sender.Address, &types.Partial{Nonce: types.Uint64(1)}))
	require.NoError(t, err)
	assert.False(t, res.Outcome.Failed)
}

func TestSelect(t *testing.T) {
	all, err := Select(nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "a", all[0].Name)

	picked, err := Select([]string{"D", " b"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "d", picked[0].Name)
	assert.Equal(t, "b", picked[1].Name)

	_, err = Select([]string{"z"})
	require.Error(t, err)
}
