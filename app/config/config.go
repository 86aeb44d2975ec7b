package config

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"vaultgate/pkg/log"
)

const (
	DefaultConfigPath = "./configs/config.yaml"

	defaultRestAddr       = ":8000"
	defaultNodeURL        = "http://localhost:8545"
	defaultDepositMethod  = "deposit"
	defaultWithdrawMethod = "withdraw"
	defaultBalanceMethod  = "balance"
	defaultConfirmations  = 1
	defaultPollInterval   = 2 * time.Second
	defaultAutoClose      = 5 * time.Second
	defaultViewTTL        = time.Hour
	defaultEventsSubject  = "vaultgate.outcomes"
)

// wallet provider kinds
const (
	ProviderNone     = ""
	ProviderKey      = "key"
	ProviderKeystore = "keystore"
	ProviderRemote   = "remote"
)

type Ethereum struct {
	NodeUrl string `mapstructure:"nodeUrl"`
}

func (e *Ethereum) Validate() error {
	if e.NodeUrl == "" {
		return errors.New("you must provide eth node url in a config")
	}
	return nil
}

// Contract describes the remote vault contract. The address is kept as an
// opaque string: it is checked only when a call is about to be made.
type Contract struct {
	Address        string        `mapstructure:"address"`
	ABI            string        `mapstructure:"abi"`
	ABIPath        string        `mapstructure:"abiPath"`
	DepositMethod  string        `mapstructure:"depositMethod"`
	WithdrawMethod string        `mapstructure:"withdrawMethod"`
	BalanceMethod  string        `mapstructure:"balanceMethod"`
	Confirmations  uint64        `mapstructure:"confirmations"`
	PollInterval   time.Duration `mapstructure:"pollInterval"`
}

func (c *Contract) Validate() error {
	var err error
	if c.Address == "" {
		err = multierr.Append(err, errors.New("you must provide contract address in a config"))
	}
	if c.DepositMethod == "" || c.WithdrawMethod == "" || c.BalanceMethod == "" {
		err = multierr.Append(err, errors.New("you must provide contract method names in a config"))
	}
	if c.Confirmations == 0 {
		err = multierr.Append(err, errors.New("contract confirmations must be at least 1"))
	}
	if c.PollInterval <= 0 {
		err = multierr.Append(err, errors.New("contract poll interval must be positive"))
	}
	return err
}

// loadABI reads the interface description from abiPath unless it is inlined.
func (c *Contract) loadABI() error {
	if c.ABI != "" || c.ABIPath == "" {
		return nil
	}
	data, err := ioutil.ReadFile(c.ABIPath)
	if err != nil {
		return errors.Wrap(err, "failed to read contract abi")
	}
	c.ABI = string(data)
	return nil
}

type Wallet struct {
	Provider    string `mapstructure:"provider"`
	PrivateKey  string `mapstructure:"privateKey"`
	KeystoreDir string `mapstructure:"keystoreDir"`
	Account     string `mapstructure:"account"`
	Passphrase  string `mapstructure:"passphrase"`
	SignerUrl   string `mapstructure:"signerUrl"`
}

func (w *Wallet) Validate() error {
	switch w.Provider {
	case ProviderNone:
		return nil
	case ProviderKey:
		if w.PrivateKey == "" {
			return errors.New("you must provide wallet private key in a config")
		}
	case ProviderKeystore:
		if w.KeystoreDir == "" {
			return errors.New("you must provide wallet keystore dir in a config")
		}
	case ProviderRemote:
		if w.SignerUrl == "" {
			return errors.New("you must provide wallet signer url in a config")
		}
	default:
		return errors.Errorf("unknown wallet provider %q", w.Provider)
	}
	return nil
}

type Secrets struct {
	Token string `mapstructure:"token"`
}

func (s *Secrets) Validate() error {
	if s.Token == "" {
		return errors.New("you must provide secrets in a config")
	}
	return nil
}

type Notifications struct {
	AutoClose time.Duration `mapstructure:"autoClose"`
	ViewTTL   time.Duration `mapstructure:"viewTtl"`
}

type Events struct {
	NatsUrl string `mapstructure:"natsUrl"`
	Subject string `mapstructure:"subject"`
}

type Config struct {
	RestAddr      string        `mapstructure:"restAddr"`
	Ethereum      Ethereum      `mapstructure:"ethereum"`
	Contract      Contract      `mapstructure:"contract"`
	Wallet        Wallet        `mapstructure:"wallet"`
	Secrets       Secrets       `mapstructure:"secrets"`
	Notifications Notifications `mapstructure:"notifications"`
	Events        Events        `mapstructure:"events"`
	Logging       log.Config    `mapstructure:"log"`
}

// Validate checks the sections every command needs.
func (c *Config) Validate() error {
	return multierr.Combine(
		c.Ethereum.Validate(),
		c.Contract.Validate(),
		c.Wallet.Validate(),
	)
}

// Parse reads the config file at path into a Config.
func Parse(path string) (*Config, error) {
	v := viper.New()

	// set reasonable defaults
	v.SetDefault("restAddr", defaultRestAddr)
	v.SetDefault("ethereum.nodeUrl", defaultNodeURL)
	v.SetDefault("contract.depositMethod", defaultDepositMethod)
	v.SetDefault("contract.withdrawMethod", defaultWithdrawMethod)
	v.SetDefault("contract.balanceMethod", defaultBalanceMethod)
	v.SetDefault("contract.confirmations", defaultConfirmations)
	v.SetDefault("contract.pollInterval", defaultPollInterval)
	v.SetDefault("notifications.autoClose", defaultAutoClose)
	v.SetDefault("notifications.viewTtl", defaultViewTTL)
	v.SetDefault("events.subject", defaultEventsSubject)

	// read a config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read a file")
	}

	// unmarshal to a config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal a config")
	}

	if cfg.Wallet.SignerUrl == "" && cfg.Wallet.Provider == ProviderRemote {
		cfg.Wallet.SignerUrl = cfg.Ethereum.NodeUrl
	}

	if err := cfg.Contract.loadABI(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
