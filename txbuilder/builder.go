package txbuilder

import (
	"context"
	"errors"
	"math/big"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
)

// Backend supplies the network defaults a transaction is completed with.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// Builder turns abstract transactions into signed, submittable ones.
type Builder struct {
	backend Backend
	log     *logrus.Logger
}

// NewBuilder creates a Builder over backend.
func NewBuilder(backend Backend, log *logrus.Logger) *Builder {
	return &Builder{backend: backend, log: log}
}

// Raw builds and signs tx and returns its network encoding and hash.
func (b *Builder) Raw(ctx context.Context, tx *types.Transaction) ([]byte, common.Hash, error) {
	signed, err := b.Build(ctx, tx)
	if err != nil {
		return nil, common.Hash{}, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, common.Hash{}, &BuildError{Field: "encoding", Err: err}
	}
	return raw, signed.Hash(), nil
}

// Build completes tx with network defaults where the caller left fields
// unset and signs it with the sender's key. A non-nil authorization list
// produces a set-code transaction; its authorizations are used as given.
func (b *Builder) Build(ctx context.Context, tx *types.Transaction) (*ethtypes.Transaction, error) {
	if tx == nil || tx.Sender == nil {
		return nil, &BuildError{Field: "sender", Err: errors.New("missing")}
	}
	if tx.Sender.Key == nil {
		return nil, &SigningError{Err: errors.New("sender has no private key")}
	}

	chainID, err := b.backend.ChainID(ctx)
	if err != nil {
		return nil, &BuildError{Field: "chain id", Err: err}
	}

	var nonce uint64
	if tx.Nonce != nil {
		nonce = *tx.Nonce
	} else {
		nonce, err = b.backend.PendingNonceAt(ctx, tx.Sender.Address)
		if err != nil {
			return nil, &BuildError{Field: "nonce", Err: err}
		}
	}

	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}

	var unsigned *ethtypes.Transaction
	if tx.AuthorizationList != nil {
		unsigned, err = b.setCodeTx(ctx, tx, chainID, nonce, value)
	} else {
		unsigned, err = b.conventionalTx(ctx, tx, chainID, nonce, value)
	}
	if err != nil {
		return nil, err
	}

	signed, err := ethtypes.SignTx(unsigned, ethtypes.LatestSignerForChainID(chainID), tx.Sender.Key)
	if err != nil {
		return nil, &SigningError{Err: err}
	}
	b.log.Debugf("Built tx %s type=%d from=%s nonce=%d gas=%d", signed.Hash().Hex(), signed.Type(), tx.Sender.Address.Hex(), nonce, signed.Gas())
	return signed, nil
}

func (b *Builder) conventionalTx(ctx context.Context, tx *types.Transaction, chainID *big.Int, nonce uint64, value *big.Int) (*ethtypes.Transaction, error) {
	gas, err := b.gasLimit(ctx, tx, value, 0)
	if err != nil {
		return nil, err
	}
	f, err := b.fees(ctx, tx, false)
	if err != nil {
		return nil, err
	}
	if !f.dynamic {
		return ethtypes.NewTx(&ethtypes.LegacyTx{
			Nonce:    nonce,
			GasPrice: f.gasPrice,
			Gas:      gas,
			To:       tx.To,
			Value:    value,
			Data:     tx.Data,
		}), nil
	}
	return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: f.tipCap,
		GasFeeCap: f.feeCap,
		Gas:       gas,
		To:        tx.To,
		Value:     value,
		Data:      tx.Data,
	}), nil
}

func (b *Builder) setCodeTx(ctx context.Context, tx *types.Transaction, chainID *big.Int, nonce uint64, value *big.Int) (*ethtypes.Transaction, error) {
	if tx.To == nil {
		return nil, &BuildError{Field: "to", Err: errors.New("set-code transaction cannot create a contract")}
	}
	if len(tx.AuthorizationList) == 0 {
		return nil, &BuildError{Field: "authorization list", Err: errors.New("empty")}
	}
	auths := make([]ethtypes.SetCodeAuthorization, 0, len(tx.AuthorizationList))
	for _, a := range tx.AuthorizationList {
		auth, err := ToSetCode(a)
		if err != nil {
			return nil, err
		}
		auths = append(auths, auth)
	}

	gas, err := b.gasLimit(ctx, tx, value, len(auths))
	if err != nil {
		return nil, err
	}
	f, err := b.fees(ctx, tx, true)
	if err != nil {
		return nil, err
	}

	cid, err := toUint256("chain id", chainID)
	if err != nil {
		return nil, err
	}
	tip, err := toUint256("gas tip cap", f.tipCap)
	if err != nil {
		return nil, err
	}
	feeCap, err := toUint256("gas fee cap", f.feeCap)
	if err != nil {
		return nil, err
	}
	val, err := toUint256("value", value)
	if err != nil {
		return nil, err
	}
	return ethtypes.NewTx(&ethtypes.SetCodeTx{
		ChainID:   cid,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        *tx.To,
		Value:     val,
		Data:      tx.Data,
		AuthList:  auths,
	}), nil
}

// gasLimit estimates the execution gas when the caller gave none. Each
// authorization is charged at the empty-account rate on top of the estimate.
func (b *Builder) gasLimit(ctx context.Context, tx *types.Transaction, value *big.Int, auths int) (uint64, error) {
	if tx.GasLimit != 0 {
		return tx.GasLimit, nil
	}
	gas, err := b.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  tx.Sender.Address,
		To:    tx.To,
		Value: value,
		Data:  tx.Data,
	})
	if err != nil {
		return 0, &BuildError{Field: "gas limit", Err: err}
	}
	return gas + uint64(auths)*params.CallNewAccountGas, nil
}

type fees struct {
	dynamic  bool
	gasPrice *big.Int
	tipCap   *big.Int
	feeCap   *big.Int
}

// fees resolves the gas price terms. Caller values take precedence; the
// default fee cap is twice the base fee plus the tip.
func (b *Builder) fees(ctx context.Context, tx *types.Transaction, requireDynamic bool) (fees, error) {
	callerDynamic := tx.GasTipCap != nil || tx.GasFeeCap != nil
	if tx.GasPrice != nil && !callerDynamic {
		if !requireDynamic {
			return fees{gasPrice: tx.GasPrice}, nil
		}
		return fees{dynamic: true, tipCap: tx.GasPrice, feeCap: tx.GasPrice}, nil
	}
	if tx.GasTipCap != nil && tx.GasFeeCap != nil {
		return fees{dynamic: true, tipCap: tx.GasTipCap, feeCap: tx.GasFeeCap}, nil
	}

	head, err := b.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return fees{}, &BuildError{Field: "gas price", Err: err}
	}
	if head.BaseFee == nil && !requireDynamic && !callerDynamic {
		price, err := b.backend.SuggestGasPrice(ctx)
		if err != nil {
			return fees{}, &BuildError{Field: "gas price", Err: err}
		}
		return fees{gasPrice: price}, nil
	}

	tip := tx.GasTipCap
	if tip == nil {
		tip, err = b.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return fees{}, &BuildError{Field: "gas tip cap", Err: err}
		}
	}
	feeCap := tx.GasFeeCap
	if feeCap == nil {
		feeCap = new(big.Int).Set(tip)
		if head.BaseFee != nil {
			feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		}
	}
	return fees{dynamic: true, tipCap: tip, feeCap: feeCap}, nil
}
