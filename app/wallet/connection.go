package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/pkg/errors"
)

type signerFunc func(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)

type connection struct {
	Network
	signer signerFunc
}

func newConnection(network Network, signer signerFunc) *connection {
	return &connection{Network: network, signer: signer}
}

// Signer resolves the chain id on every call so a handle never outlives a
// network switch.
func (c *connection) Signer(ctx context.Context) (*bind.TransactOpts, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve chain id")
	}

	opts, err := c.signer(ctx, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}
