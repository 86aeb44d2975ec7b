package gateway

import (
	"context"

	"vaultgate/app/models"
)

type Service interface {
	EnsureAuthorized(ctx context.Context) (*models.Authorization, error)
	Deposit(ctx context.Context, amount string) (*models.TxReceipt, error)
	Withdraw(ctx context.Context, amount string) (*models.TxReceipt, error)
	GetBalance(ctx context.Context) (*models.Balance, error)
}
