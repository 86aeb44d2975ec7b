package gateway

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"vaultgate/app/wallet"
)

var (
	testChainID  = big.NewInt(1337)
	testContract = common.HexToAddress("0x9B69E147c2154873E23F4EbaEE71592E610af0F6")
	vaultABI     = mustParseABI(VaultABI)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}

type sentCall struct {
	method string
	args   []interface{}
	from   common.Address
}

// fakeChain is an in-memory node hosting a single vault contract.
type fakeChain struct {
	mu sync.Mutex

	head        uint64
	nonce       uint64
	balance     *big.Int
	rawOutput   []byte // overrides the packed balance output when set
	revert      bool   // mined transactions fail
	neverMined  bool   // receipts never show up
	estimateErr error
	chainErr    error

	sent     []sentCall
	calls    []sentCall
	receipts map[common.Hash]*types.Receipt
}

var _ wallet.Network = (*fakeChain)(nil)

func newFakeChain() *fakeChain {
	return &fakeChain{
		head:     100,
		balance:  new(big.Int),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (c *fakeChain) sentCalls() []sentCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentCall(nil), c.sent...)
}

func (c *fakeChain) readCalls() []sentCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentCall(nil), c.calls...)
}

func decodeCall(data []byte) (string, []interface{}, error) {
	if len(data) < 4 {
		return "", nil, errors.New("short call data")
	}
	method, err := vaultABI.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, err
	}
	return method.Name, args, nil
}

func (c *fakeChain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if contract != testContract {
		return nil, nil
	}
	return []byte{0x60, 0x80}, nil
}

func (c *fakeChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	name, args, err := decodeCall(call.Data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, sentCall{method: name, args: args, from: call.From})
	if c.rawOutput != nil {
		return c.rawOutput, nil
	}
	return vaultABI.Methods["balance"].Outputs.Pack(c.balance)
}

func (c *fakeChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &types.Header{Number: new(big.Int).SetUint64(c.head)}, nil
}

func (c *fakeChain) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return c.CodeAt(ctx, account, nil)
}

func (c *fakeChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonce, nil
}

func (c *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (c *fakeChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (c *fakeChain) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if c.estimateErr != nil {
		return 0, c.estimateErr
	}
	return 50000, nil
}

func (c *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	name, args, err := decodeCall(tx.Data())
	if err != nil {
		return err
	}
	from, err := types.Sender(types.LatestSignerForChainID(testChainID), tx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentCall{method: name, args: args, from: from})
	c.nonce++
	c.head++

	if c.neverMined {
		return nil
	}
	status := types.ReceiptStatusSuccessful
	if c.revert {
		status = types.ReceiptStatusFailed
	}
	c.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		GasUsed:     42000,
		BlockNumber: new(big.Int).SetUint64(c.head),
	}
	return nil
}

func (c *fakeChain) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (c *fakeChain) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (c *fakeChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rcpt, ok := c.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return rcpt, nil
}

func (c *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainErr != nil {
		return nil, c.chainErr
	}
	return testChainID, nil
}

// fakeProvider is a wallet over fakeChain signing with a generated key.
type fakeProvider struct {
	chain   *fakeChain
	key     *ecdsa.PrivateKey
	account common.Address

	mu         sync.Mutex
	requestErr error
	connectErr error
	signerErr  error
	requests   int
	signers    int
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return []common.Address{p.account}, nil
}

func (p *fakeProvider) Connect(ctx context.Context) (wallet.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	return &fakeConnection{fakeChain: p.chain, provider: p}, nil
}

func (p *fakeProvider) signerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signers
}

func (p *fakeProvider) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

type fakeConnection struct {
	*fakeChain
	provider *fakeProvider
}

func (c *fakeConnection) Signer(ctx context.Context) (*bind.TransactOpts, error) {
	c.provider.mu.Lock()
	c.provider.signers++
	signerErr := c.provider.signerErr
	c.provider.mu.Unlock()
	if signerErr != nil {
		return nil, signerErr
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.provider.key, testChainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}
