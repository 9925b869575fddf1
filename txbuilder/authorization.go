package txbuilder

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// ParseKey decodes a hex private key, with or without 0x prefix.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, &SigningError{Err: fmt.Errorf("invalid private key: %w", err)}
	}
	return key, nil
}

// SignAuthorization signs a delegation of the key's account to contract.
func SignAuthorization(contract common.Address, chainID *big.Int, nonce uint64, key *ecdsa.PrivateKey) (types.Authorization, error) {
	if key == nil {
		return types.Authorization{}, &SigningError{Err: errors.New("missing private key")}
	}
	cid, err := toUint256("authorization chain id", chainID)
	if err != nil {
		return types.Authorization{}, err
	}
	signed, err := ethtypes.SignSetCode(key, ethtypes.SetCodeAuthorization{
		ChainID: *cid,
		Address: contract,
		Nonce:   nonce,
	})
	if err != nil {
		return types.Authorization{}, &SigningError{Err: err}
	}
	return fromSetCode(signed), nil
}

// ToSetCode converts an Authorization to its wire form. V is taken from the
// y-parity bit.
func ToSetCode(a types.Authorization) (ethtypes.SetCodeAuthorization, error) {
	cid, err := toUint256("authorization chain id", a.ChainID)
	if err != nil {
		return ethtypes.SetCodeAuthorization{}, err
	}
	r, err := toUint256("authorization r", a.R)
	if err != nil {
		return ethtypes.SetCodeAuthorization{}, err
	}
	s, err := toUint256("authorization s", a.S)
	if err != nil {
		return ethtypes.SetCodeAuthorization{}, err
	}
	return ethtypes.SetCodeAuthorization{
		ChainID: *cid,
		Address: a.ContractAddress,
		Nonce:   a.Nonce,
		V:       a.YParity,
		R:       *r,
		S:       *s,
	}, nil
}

func fromSetCode(auth ethtypes.SetCodeAuthorization) types.Authorization {
	return types.Authorization{
		ContractAddress: auth.Address,
		ChainID:         auth.ChainID.ToBig(),
		Nonce:           auth.Nonce,
		YParity:         auth.V,
		R:               auth.R.ToBig(),
		S:               auth.S.ToBig(),
	}
}

func toUint256(field string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, &BuildError{Field: field, Err: errors.New("missing")}
	}
	u, overflow := uint256.FromBig(v)
	if overflow || v.Sign() < 0 {
		return nil, &BuildError{Field: field, Err: fmt.Errorf("value %s out of range", v)}
	}
	return u, nil
}
