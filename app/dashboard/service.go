package dashboard

import (
	"context"

	"vaultgate/app/models"
)

// Service is the presentation collaborator of the gateway: it owns the form
// state of every client view and turns each action into one notification.
type Service interface {
	OpenView(ctx context.Context) (*models.View, error)
	GetView(ctx context.Context, clientID string) (*models.View, error)
	SetDepositInput(ctx context.Context, clientID string, in *models.InputUpdate) (*models.View, error)
	SetWithdrawalInput(ctx context.Context, clientID string, in *models.InputUpdate) (*models.View, error)

	Authorize(ctx context.Context, clientID string) (*models.Outcome, error)
	Deposit(ctx context.Context, clientID string) (*models.Outcome, error)
	Withdraw(ctx context.Context, clientID string) (*models.Outcome, error)
	GetBalance(ctx context.Context, clientID string) (*models.Outcome, error)
}
