package statetest

import (
	"context"

	"github.com/airchains-network/state-conformance/dispatch"
	"github.com/airchains-network/state-conformance/report"
	"github.com/airchains-network/state-conformance/types"
	"github.com/sirupsen/logrus"
)

// Dispatcher submits the work of one state test.
type Dispatcher interface {
	Dispatch(ctx context.Context, w dispatch.Work) (*dispatch.Outcome, error)
}

// Verifier diffs node state against an expected post-state.
type Verifier interface {
	Verify(ctx context.Context, post types.PostState) []types.Difference
}

// Result is what a state test observed.
type Result struct {
	Outcome     *dispatch.Outcome
	Differences []types.Difference
}

// Runner runs state tests: submit the work, then verify the post-state.
type Runner struct {
	dispatcher Dispatcher
	verifier   Verifier
	log        *logrus.Logger
}

// NewRunner creates a Runner.
func NewRunner(d Dispatcher, v Verifier, log *logrus.Logger) *Runner {
	return &Runner{dispatcher: d, verifier: v, log: log}
}

// Run submits w and checks post against the resulting state. Errors from
// submission are returned as they are; state differences come back as a
// single *report.VerificationFailed alongside the result.
func (r *Runner) Run(ctx context.Context, w dispatch.Work, post types.PostState) (*Result, error) {
	outcome, err := r.dispatcher.Dispatch(ctx, w)
	if err != nil {
		return nil, err
	}
	if outcome.Failed {
		r.log.Warnf("Verifying post-state after failed tx %s: %s", outcome.TxHash.Hex(), outcome.ErrorMessage)
	}

	res, err := r.Check(ctx, post)
	res.Outcome = outcome
	return res, err
}

// Check verifies post against the current state without submitting
// anything.
func (r *Runner) Check(ctx context.Context, post types.PostState) (*Result, error) {
	res := &Result{Differences: r.verifier.Verify(ctx, post)}
	if err := report.Check(post, res.Differences); err != nil {
		r.log.Errorf("State verification failed with %d differences", len(res.Differences))
		return res, err
	}
	r.log.Debugf("State verification passed for %d accounts", len(post))
	return res, nil
}
