package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// KeyProvider signs with a single raw private key. Access is always granted.
type KeyProvider struct {
	network    Network
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func NewKeyProvider(network Network, hexKey string) (*KeyProvider, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert private key to ecdsa")
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("failed to cast public key to ecdsa")
	}

	return &KeyProvider{
		network:    network,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
	}, nil
}

func (p *KeyProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *KeyProvider) Connect(ctx context.Context) (Connection, error) {
	return newConnection(p.network, func(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
		opts, err := bind.NewKeyedTransactorWithChainID(p.privateKey, chainID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create a keyed transactor")
		}
		return opts, nil
	}), nil
}
