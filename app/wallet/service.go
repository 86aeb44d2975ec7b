package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Provider is a wallet able to grant account access and hand out connections.
type Provider interface {
	// RequestAccounts asks the wallet for account access. It may block while
	// the wallet asks its owner. The first account is the active one.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Connect returns a read/write connection to the network through the wallet.
	Connect(ctx context.Context) (Connection, error)
}

// Network is the view of the chain a connection exposes.
type Network interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Connection is a network view plus the ability to derive a signing handle
// for the wallet's currently active account.
type Connection interface {
	Network
	Signer(ctx context.Context) (*bind.TransactOpts, error)
}
