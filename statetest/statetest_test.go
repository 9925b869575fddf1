package statetest

import (
	"context"
	"io"
	"testing"

	"github.com/airchains-network/state-conformance/dispatch"
	"github.com/airchains-network/state-conformance/report"
	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDispatcher struct {
	outcome *dispatch.Outcome
	err     error
	calls   int
}

func (d *stubDispatcher) Dispatch(ctx context.Context, w dispatch.Work) (*dispatch.Outcome, error) {
	d.calls++
	return d.outcome, d.err
}

type stubVerifier struct {
	diffs []types.Difference
	calls int
}

func (v *stubVerifier) Verify(ctx context.Context, post types.PostState) []types.Difference {
	v.calls++
	return v.diffs
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var addr = common.HexToAddress("0x01")

func TestRunPasses(t *testing.T) {
	d := &stubDispatcher{outcome: &dispatch.Outcome{TxHash: common.HexToHash("0xaa")}}
	v := &stubVerifier{}

	res, err := NewRunner(d, v, quietLogger()).Run(context.Background(), dispatch.Work{}, types.PostState{}.Set(addr, types.Absent{}))
	require.NoError(t, err)
	assert.Equal(t, d.outcome, res.Outcome)
	assert.Empty(t, res.Differences)
	assert.Equal(t, 1, v.calls)
}

func TestRunVerifiesAfterFailedTx(t *testing.T) {
	d := &stubDispatcher{outcome: &dispatch.Outcome{Failed: true, ErrorMessage: "reverted"}}
	v := &stubVerifier{diffs: []types.Difference{*types.NonceDiff(addr, 1, 0)}}

	res, err := NewRunner(d, v, quietLogger()).Run(context.Background(), dispatch.Work{}, types.PostState{}.Set(addr, &types.Partial{Nonce: types.Uint64(1)}))
	var failed *report.VerificationFailed
	require.ErrorAs(t, err, &failed)
	require.NotNil(t, res)
	assert.True(t, res.Outcome.Failed)
	assert.Equal(t, v.diffs, failed.Differences)
}

func TestRunDispatchErrorSkipsVerification(t *testing.T) {
	d := &stubDispatcher{err: &dispatch.InvalidUsage{Reason: "tx and blocks cannot both be provided"}}
	v := &stubVerifier{}

	_, err := NewRunner(d, v, quietLogger()).Run(context.Background(), dispatch.Work{}, nil)
	var usage *dispatch.InvalidUsage
	require.ErrorAs(t, err, &usage)
	assert.Zero(t, v.calls)
}

func TestCheckDoesNotDispatch(t *testing.T) {
	d := &stubDispatcher{}
	v := &stubVerifier{}

	res, err := NewRunner(d, v, quietLogger()).Check(context.Background(), types.PostState{}.Set(addr, types.Absent{}))
	require.NoError(t, err)
	assert.Nil(t, res.Outcome)
	assert.Zero(t, d.calls)
}
