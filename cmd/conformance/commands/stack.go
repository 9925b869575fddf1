package commands

import (
	"fmt"

	"github.com/airchains-network/state-conformance/alloc"
	"github.com/airchains-network/state-conformance/config"
	"github.com/airchains-network/state-conformance/dispatch"
	"github.com/airchains-network/state-conformance/eth"
	"github.com/airchains-network/state-conformance/internal/simnode"
	"github.com/airchains-network/state-conformance/scenario"
	"github.com/airchains-network/state-conformance/statetest"
	"github.com/airchains-network/state-conformance/txbuilder"
	"github.com/airchains-network/state-conformance/types"
	"github.com/airchains-network/state-conformance/verify"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// node is everything the engine needs from the chain. Both *simnode.Node
// and a real node (eth.Client for submission, its ethclient for reads)
// provide it.
type node interface {
	dispatch.Node
	alloc.Node
}

type stack struct {
	env   *scenario.Env
	label string
	close func()
}

// newStack wires builder, dispatcher, verifier and funding helper over the
// configured node, or over an in-process chain when simulated is set.
func newStack(cfg config.Config, simulated bool, log *logrus.Logger) (*stack, error) {
	receiptTimeout, err := cfg.Dispatch.ReceiptTimeoutDuration()
	if err != nil {
		return nil, err
	}
	poll, err := cfg.Dispatch.PollIntervalDuration()
	if err != nil {
		return nil, err
	}
	fundTimeout, err := cfg.Dispatch.FundTimeoutDuration()
	if err != nil {
		return nil, err
	}
	genesis, err := genesisAccount(cfg, simulated)
	if err != nil {
		return nil, err
	}

	var (
		n       node
		backend txbuilder.Backend
		reader  verify.StateReader
		st      = &stack{}
	)
	if simulated {
		sim := simnode.New(log, genesis.Address)
		n, backend, reader = sim, sim, sim
		st.label = "simulated"
		st.close = func() { sim.Close() }
	} else {
		client, err := eth.NewClient(cfg.Node.RPCURL, eth.ChainMethods{
			BestHead:    cfg.Chain.BestHeadMethod,
			CustomBlock: cfg.Chain.CustomBlockMethod,
			EmptyBlocks: cfg.Chain.EmptyBlocksMethod,
		})
		if err != nil {
			return nil, err
		}
		n, backend, reader = client, client.Eth, client.Eth
		st.label = cfg.Node.RPCURL
		st.close = client.Close
	}

	builder := txbuilder.NewBuilder(backend, log)
	dispatcher := dispatch.NewDispatcher(n, builder, dispatch.Config{
		ReceiptTimeout: receiptTimeout,
		PollInterval:   poll,
		ExtraBlocks:    cfg.Dispatch.ExtraBlocks,
	}, log)
	verifier := verify.NewVerifier(reader, cfg.Verify.ShortCodeThreshold, log)

	st.env = &scenario.Env{
		Alloc:                alloc.New(n, builder, genesis, fundTimeout, poll, log),
		Runner:               statetest.NewRunner(dispatcher, verifier, log),
		Reader:               reader,
		ResolveDelegatedCode: cfg.Scenarios.ResolveDelegatedCode,
		Log:                  log,
	}
	return st, nil
}

// genesisAccount loads the funding key. A simulated chain without one gets a
// fresh key, funded at genesis.
func genesisAccount(cfg config.Config, simulated bool) (*types.EOA, error) {
	if cfg.Genesis.PrivateKey != "" {
		key, err := txbuilder.ParseKey(cfg.Genesis.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid genesis.private_key: %v", err)
		}
		return types.NewEOA(key), nil
	}
	if !simulated {
		return nil, fmt.Errorf("genesis.private_key is not configured")
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return types.NewEOA(key), nil
}
