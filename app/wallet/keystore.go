package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// KeystoreProvider grants access to one account of an encrypted keystore
// directory. Access is granted by unlocking the account with the passphrase.
type KeystoreProvider struct {
	network    Network
	keystore   *keystore.KeyStore
	account    string // optional, the first account is used when empty
	passphrase string

	mu     sync.Mutex
	active *accounts.Account
}

func NewKeystoreProvider(network Network, ks *keystore.KeyStore, account, passphrase string) *KeystoreProvider {
	return &KeystoreProvider{
		network:    network,
		keystore:   ks,
		account:    account,
		passphrase: passphrase,
	}
}

func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	acc, err := p.selectAccount()
	if err != nil {
		return nil, denied(err)
	}

	if err := p.keystore.Unlock(acc, p.passphrase); err != nil {
		p.setActive(nil)
		return nil, denied(errors.Wrapf(err, "failed to unlock account %s", acc.Address.Hex()))
	}

	p.setActive(&acc)
	return []common.Address{acc.Address}, nil
}

func (p *KeystoreProvider) Connect(ctx context.Context) (Connection, error) {
	return newConnection(p.network, func(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
		acc := p.getActive()
		if acc == nil {
			return nil, denied(errors.New("account access was not granted"))
		}
		opts, err := bind.NewKeyStoreTransactorWithChainID(p.keystore, *acc, chainID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create a keystore transactor")
		}
		return opts, nil
	}), nil
}

func (p *KeystoreProvider) selectAccount() (accounts.Account, error) {
	accs := p.keystore.Accounts()
	if len(accs) == 0 {
		return accounts.Account{}, errors.New("there are no accounts in the keystore")
	}
	if p.account == "" {
		return accs[0], nil
	}

	want := common.HexToAddress(p.account)
	for _, acc := range accs {
		if acc.Address == want {
			return acc, nil
		}
	}
	return accounts.Account{}, errors.Errorf("account %s is not in the keystore", p.account)
}

func (p *KeystoreProvider) setActive(acc *accounts.Account) {
	p.mu.Lock()
	p.active = acc
	p.mu.Unlock()
}

func (p *KeystoreProvider) getActive() *accounts.Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}
