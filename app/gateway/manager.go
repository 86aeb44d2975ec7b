package gateway

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vaultgate/app/config"
	"vaultgate/app/metrics"
	"vaultgate/app/models"
	"vaultgate/app/wallet"
	"vaultgate/pkg/eth"
	"vaultgate/pkg/log"
)

const resultOK = "ok"

// Session is the wallet access granted for the lifetime of the process.
type Session struct {
	Account      common.Address
	AuthorizedAt time.Time
}

// Manager runs every action as: authorize, derive a fresh handle, make one
// contract call, wait for confirmation on writes. Actions are independent and
// may overlap; only the session is shared between them.
type Manager struct {
	config   config.Contract
	provider wallet.Provider
	metrics  *metrics.Metrics
	abi      abi.ABI

	mu      sync.Mutex
	session *Session
}

// NewManager parses the contract interface once. A nil provider is allowed and
// makes every action fail with ProviderUnavailable.
func NewManager(cfg config.Contract, provider wallet.Provider, m *metrics.Metrics) (*Manager, error) {
	definition := cfg.ABI
	if definition == "" {
		definition = VaultABI
	}
	contractABI, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse a contract abi")
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}

	return &Manager{
		config:   cfg,
		provider: provider,
		metrics:  m,
		abi:      contractABI,
	}, nil
}

func (m *Manager) EnsureAuthorized(ctx context.Context) (*models.Authorization, error) {
	r := m.begin(ctx, models.ActionAuthorize)

	sess, err := m.authorize(ctx)
	if err != nil {
		return nil, r.fail(err, models.KindAuthorizationDenied)
	}

	r.succeed()
	return &models.Authorization{Account: sess.Account.Hex()}, nil
}

func (m *Manager) Deposit(ctx context.Context, amount string) (*models.TxReceipt, error) {
	return m.transact(ctx, models.ActionDeposit, m.config.DepositMethod, amount)
}

func (m *Manager) Withdraw(ctx context.Context, amount string) (*models.TxReceipt, error) {
	return m.transact(ctx, models.ActionWithdraw, m.config.WithdrawMethod, amount)
}

func (m *Manager) GetBalance(ctx context.Context) (*models.Balance, error) {
	r := m.begin(ctx, models.ActionBalance)

	sess, err := m.authorize(ctx)
	if err != nil {
		return nil, r.fail(err, models.KindQueryFailed)
	}

	r.enter(models.StageCalling)
	conn, err := m.provider.Connect(ctx)
	if err != nil {
		return nil, r.fail(errors.Wrap(err, "failed to connect to the wallet"), models.KindQueryFailed)
	}
	contract, err := m.readHandle(conn)
	if err != nil {
		return nil, r.fail(err, models.KindQueryFailed)
	}

	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: sess.Account}
	if err := contract.Call(opts, &out, m.config.BalanceMethod); err != nil {
		return nil, r.fail(errors.Wrapf(err, "failed to call %s", m.config.BalanceMethod), models.KindQueryFailed)
	}
	raw, err := firstInteger(out)
	if err != nil {
		return nil, r.fail(err, models.KindQueryFailed)
	}

	r.succeed()
	return &models.Balance{
		Raw:   raw.String(),
		Value: eth.FormatEther(raw),
	}, nil
}

func (m *Manager) transact(ctx context.Context, action models.Action, method, amount string) (*models.TxReceipt, error) {
	r := m.begin(ctx, action)

	if _, err := m.authorize(ctx); err != nil {
		return nil, r.fail(err, models.KindTransactionFailed)
	}

	r.enter(models.StageCalling)
	value, err := eth.ParseAmount(amount)
	if err != nil {
		return nil, r.fail(err, models.KindTransactionFailed)
	}
	conn, err := m.provider.Connect(ctx)
	if err != nil {
		return nil, r.fail(errors.Wrap(err, "failed to connect to the wallet"), models.KindTransactionFailed)
	}
	opts, err := conn.Signer(ctx)
	if err != nil {
		return nil, r.fail(errors.Wrap(err, "failed to get a signer"), models.KindTransactionFailed)
	}
	m.follow(opts.From)

	contract, err := m.writeHandle(conn)
	if err != nil {
		return nil, r.fail(err, models.KindTransactionFailed)
	}
	tx, err := contract.Transact(opts, method, value)
	if err != nil {
		return nil, r.fail(errors.Wrapf(err, "failed to send %s", method), models.KindTransactionFailed)
	}
	r.logger.Infow("transaction submitted", "tx", tx.Hash().Hex(), "from", opts.From.Hex())

	r.enter(models.StageConfirming)
	rcpt, err := eth.WaitConfirmed(ctx, conn, tx.Hash(), m.config.Confirmations, m.config.PollInterval)
	if err != nil {
		return nil, r.fail(err, models.KindTransactionFailed)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return nil, r.fail(errors.Errorf("transaction %s reverted", tx.Hash().Hex()), models.KindTransactionFailed)
	}

	r.succeed()
	result := &models.TxReceipt{
		Hash:    tx.Hash().Hex(),
		From:    opts.From.Hex(),
		GasUsed: rcpt.GasUsed,
	}
	if rcpt.BlockNumber != nil {
		result.BlockNumber = rcpt.BlockNumber.Uint64()
	}
	return result, nil
}

// authorize returns the cached session or asks the wallet for access.
// The lock is not held while the wallet is asked: the request may wait on
// the wallet owner for as long as it takes.
func (m *Manager) authorize(ctx context.Context) (*Session, error) {
	if m.provider == nil {
		return nil, errors.Wrap(wallet.ErrUnavailable, "no wallet provider configured")
	}

	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()
	if sess != nil {
		return sess, nil
	}

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to request accounts")
	}
	if len(accounts) == 0 {
		return nil, errors.Wrap(wallet.ErrDenied, "wallet granted no accounts")
	}

	sess = &Session{Account: accounts[0], AuthorizedAt: time.Now()}
	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()

	log.FromContext(ctx).Infow("wallet authorized", "account", sess.Account.Hex())
	return sess, nil
}

// follow moves the session to the account the wallet signs with now.
func (m *Manager) follow(account common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil && m.session.Account != account {
		m.session = &Session{Account: account, AuthorizedAt: m.session.AuthorizedAt}
	}
}

func (m *Manager) dropSession() {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
}

// Session returns the current session or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *Manager) contractAddress() (common.Address, error) {
	if !eth.IsValidAddress(m.config.Address) {
		return common.Address{}, errors.Errorf("invalid contract address %q", m.config.Address)
	}
	return common.HexToAddress(m.config.Address), nil
}

func (m *Manager) writeHandle(conn wallet.Connection) (*bind.BoundContract, error) {
	address, err := m.contractAddress()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, m.abi, conn, conn, conn), nil
}

// readHandle has no transactor: it cannot send transactions.
func (m *Manager) readHandle(conn wallet.Network) (*bind.BoundContract, error) {
	address, err := m.contractAddress()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, m.abi, conn, nil, nil), nil
}

func firstInteger(out []interface{}) (*big.Int, error) {
	if len(out) == 0 {
		return nil, errors.New("balance call returned nothing")
	}
	switch v := out[0].(type) {
	case *big.Int:
		return v, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, errors.Errorf("unexpected balance type %T", out[0])
	}
}

// run tracks the stages of one action for logs and metrics.
type run struct {
	m       *Manager
	action  models.Action
	stage   models.Stage
	started time.Time
	logger  *zap.SugaredLogger
}

func (m *Manager) begin(ctx context.Context, action models.Action) *run {
	r := &run{
		m:       m,
		action:  action,
		started: time.Now(),
		logger:  log.FromContext(ctx).With("action", action),
	}
	m.metrics.ActionStarted(string(action))
	r.enter(models.StageAuthorizing)
	return r
}

func (r *run) enter(stage models.Stage) {
	r.stage = stage
	r.logger.Debugw("action stage", "stage", stage)
}

func (r *run) succeed() {
	r.enter(models.StageSucceeded)
	r.m.metrics.ActionFinished(string(r.action), resultOK, time.Since(r.started).Seconds())
}

func (r *run) fail(err error, fallback models.ErrorKind) error {
	kind := classify(r.stage, err, fallback)
	if kind == models.KindProviderUnavailable || errors.Is(err, wallet.ErrDenied) {
		r.m.dropSession()
	}

	gwErr := &Error{Action: r.action, Kind: kind, Stage: r.stage, Err: err}
	r.logger.Debugw("action stage", "stage", models.StageFailed, "kind", kind, "failedIn", r.stage)
	r.m.metrics.ActionFinished(string(r.action), string(kind), time.Since(r.started).Seconds())
	return gwErr
}
