package wallet

import (
	"bytes"
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// EIP-1193 provider error codes
const (
	codeUserRejected = 4001
	codeUnauthorized = 4100
)

// signTxArgs follows the eth_signTransaction request object.
type signTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

// RemoteProvider talks to an external signer over JSON-RPC: account access via
// eth_requestAccounts and signing via eth_signTransaction. Signed transactions
// are broadcast through the network connection, not through the signer.
type RemoteProvider struct {
	network Network
	signer  *rpc.Client

	mu       sync.Mutex
	accounts []common.Address
}

func NewRemoteProvider(network Network, signer *rpc.Client) *RemoteProvider {
	return &RemoteProvider{network: network, signer: signer}
}

func (p *RemoteProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accs []common.Address
	if err := p.signer.CallContext(ctx, &accs, "eth_requestAccounts"); err != nil {
		p.setAccounts(nil)
		return nil, classifyRemote(errors.Wrap(err, "eth_requestAccounts failed"))
	}
	if len(accs) == 0 {
		p.setAccounts(nil)
		return nil, denied(errors.New("signer returned no accounts"))
	}

	p.setAccounts(accs)
	return accs, nil
}

func (p *RemoteProvider) Connect(ctx context.Context) (Connection, error) {
	return newConnection(p.network, func(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
		from, ok := p.activeAccount()
		if !ok {
			return nil, denied(errors.New("account access was not granted"))
		}
		return &bind.TransactOpts{
			From: from,
			Signer: func(address common.Address, tx *types.Transaction) (*types.Transaction, error) {
				if address != from {
					return nil, bind.ErrNotAuthorized
				}
				return p.signTransaction(ctx, from, tx, chainID)
			},
		}, nil
	}), nil
}

func (p *RemoteProvider) signTransaction(
	ctx context.Context,
	from common.Address,
	tx *types.Transaction,
	chainID *big.Int,
) (*types.Transaction, error) {
	args := &signTxArgs{
		From:    from,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Data:    tx.Data(),
		ChainID: (*hexutil.Big)(chainID),
	}
	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}

	var result signTxResult
	if err := p.signer.CallContext(ctx, &result, "eth_signTransaction", args); err != nil {
		return nil, classifyRemote(errors.Wrap(err, "eth_signTransaction failed"))
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(result.Raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode a signed transaction")
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to recover the signer of a transaction")
	}
	if sender != from || !sameCall(signed, tx) {
		return nil, errors.New("signer returned a different transaction")
	}
	return signed, nil
}

// sameCall reports whether the signed transaction carries the call that was
// asked for. Fees are left to the wallet.
func sameCall(signed, tx *types.Transaction) bool {
	if signed.Nonce() != tx.Nonce() || signed.Gas() != tx.Gas() {
		return false
	}
	if signed.Value().Cmp(tx.Value()) != 0 || !bytes.Equal(signed.Data(), tx.Data()) {
		return false
	}
	to, want := signed.To(), tx.To()
	if to == nil || want == nil {
		return to == nil && want == nil
	}
	return *to == *want
}

func (p *RemoteProvider) setAccounts(accs []common.Address) {
	p.mu.Lock()
	p.accounts = accs
	p.mu.Unlock()
}

func (p *RemoteProvider) activeAccount() (common.Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.accounts) == 0 {
		return common.Address{}, false
	}
	return p.accounts[0], true
}

// classifyRemote maps signer errors: EIP-1193 refusals are denials, transport
// failures mean the signer is unavailable, other rpc errors pass through.
func classifyRemote(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected, codeUnauthorized:
			return denied(err)
		}
		return err
	}
	return unavailable(err)
}
