package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"vaultgate/app/config"
	"vaultgate/pkg/log"
)

// New builds the provider named in the config. No provider configured yields
// a nil Provider, which the gateway reports as unavailable.
func New(ctx context.Context, cfg config.Wallet, network Network) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		log.Warn("no wallet provider configured, every action will fail")
		return nil, nil
	case config.ProviderKey:
		return NewKeyProvider(network, cfg.PrivateKey)
	case config.ProviderKeystore:
		ks := keystore.NewKeyStore(cfg.KeystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
		return NewKeystoreProvider(network, ks, cfg.Account, cfg.Passphrase), nil
	case config.ProviderRemote:
		client, err := rpc.DialContext(ctx, cfg.SignerUrl)
		if err != nil {
			return nil, errors.Wrap(err, "failed to dial the remote signer")
		}
		return NewRemoteProvider(network, client), nil
	default:
		return nil, errors.Errorf("unknown wallet provider %q", cfg.Provider)
	}
}
