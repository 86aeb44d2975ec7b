package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"vaultgate/app/config"
	"vaultgate/app/gateway"
	"vaultgate/app/metrics"
	"vaultgate/app/models"
	"vaultgate/app/wallet"
	"vaultgate/pkg/eth"
	"vaultgate/pkg/log"
)

// newGateway dials the node and builds the gateway over the configured wallet.
func newGateway(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*gateway.Manager, func(), error) {
	ethClient, _, err := eth.Dial(ctx, cfg.Ethereum.NodeUrl)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed connection to node")
	}

	provider, err := wallet.New(ctx, cfg.Wallet, ethClient)
	if err != nil {
		ethClient.Close()
		return nil, nil, err
	}

	gw, err := gateway.NewManager(cfg.Contract, provider, m)
	if err != nil {
		ethClient.Close()
		return nil, nil, err
	}
	return gw, ethClient.Close, nil
}

func authorizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "authorize",
		Usage: "ask the wallet for account access",
		Action: runAction(models.ActionAuthorize, func(ctx context.Context, gw gateway.Service, _ string) (string, error) {
			auth, err := gw.EnsureAuthorized(ctx)
			if err != nil {
				return "", err
			}
			return auth.Account, nil
		}),
	}
}

func depositCommand() *cli.Command {
	return &cli.Command{
		Name:      "deposit",
		Usage:     "deposit AMOUNT base units into the vault",
		ArgsUsage: "AMOUNT",
		Action: runAction(models.ActionDeposit, func(ctx context.Context, gw gateway.Service, amount string) (string, error) {
			rcpt, err := gw.Deposit(ctx, amount)
			if err != nil {
				return "", err
			}
			return rcpt.Hash, nil
		}),
	}
}

func withdrawCommand() *cli.Command {
	return &cli.Command{
		Name:      "withdraw",
		Usage:     "withdraw AMOUNT base units from the vault",
		ArgsUsage: "AMOUNT",
		Action: runAction(models.ActionWithdraw, func(ctx context.Context, gw gateway.Service, amount string) (string, error) {
			rcpt, err := gw.Withdraw(ctx, amount)
			if err != nil {
				return "", err
			}
			return rcpt.Hash, nil
		}),
	}
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "print the vault balance of the wallet account",
		Action: runAction(models.ActionBalance, func(ctx context.Context, gw gateway.Service, _ string) (string, error) {
			balance, err := gw.GetBalance(ctx)
			if err != nil {
				return "", err
			}
			return models.BalanceText(balance.Value), nil
		}),
	}
}

type actionFunc func(ctx context.Context, gw gateway.Service, arg string) (string, error)

// runAction runs one gateway action and prints the message a notification
// would carry followed by the result. SIGINT and SIGTERM cancel the action.
func runAction(action models.Action, fn actionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Parse(c.String("config"))
		if err != nil {
			return err
		}
		log.ConfigureLogger(cfg.Logging)
		defer func() {
			_ = log.Sync()
		}()

		ctx, stop := actionContext(c.Context)
		defer stop()

		gw, closeNode, err := newGateway(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer closeNode()

		return perform(ctx, c.App.Writer, gw, action, fn, c.Args().First())
	}
}

func actionContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func perform(ctx context.Context, w io.Writer, gw gateway.Service, action models.Action, fn actionFunc, arg string) error {
	result, err := fn(ctx, gw, arg)
	if err != nil {
		log.FromContext(ctx).Errorw("action failed",
			"action", action,
			"kind", gateway.KindOf(err),
			"stage", gateway.StageOf(err),
			"error", err.Error(),
		)
		message := action.FailureMessage()
		if gateway.KindOf(err) == models.KindProviderUnavailable {
			message = models.MessageProviderMissing
		}
		return cli.Exit(message, 1)
	}

	fmt.Fprintln(w, action.SuccessMessage())
	fmt.Fprintln(w, result)
	return nil
}
