package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"vaultgate/app/config"
	"vaultgate/app/events"
	"vaultgate/app/gateway"
	"vaultgate/app/metrics"
	"vaultgate/app/models"
	"vaultgate/app/notifier"
	"vaultgate/pkg/log"
	"vaultgate/pkg/response"
	"vaultgate/pkg/uuid"
)

const publishTimeout = 5 * time.Second

type Manager struct {
	Config   config.Notifications
	Gateway  gateway.Service
	Notifier notifier.Service
	Events   events.Publisher
	Metrics  *metrics.Metrics

	mu    sync.Mutex // guards the views stored in the cache
	views *cache.Cache
}

func NewManager(
	cfg config.Notifications,
	gw gateway.Service,
	notifierSvc notifier.Service,
	publisher events.Publisher,
	m *metrics.Metrics,
) *Manager {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Manager{
		Config:   cfg,
		Gateway:  gw,
		Notifier: notifierSvc,
		Events:   publisher,
		Metrics:  m,
		views:    cache.New(cfg.ViewTTL, cfg.ViewTTL),
	}
}

func (m *Manager) OpenView(ctx context.Context) (*models.View, error) {
	view := models.NewView(uuid.NewUUID())
	log.AddFields(ctx, "client", view.ClientID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.views.SetDefault(view.ClientID, view)
	return copyView(view), nil
}

func (m *Manager) GetView(ctx context.Context, clientID string) (*models.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	view, err := m.lookup(clientID)
	if err != nil {
		return nil, err
	}
	return copyView(view), nil
}

func (m *Manager) SetDepositInput(ctx context.Context, clientID string, in *models.InputUpdate) (*models.View, error) {
	if err := in.Validate(); err != nil {
		return nil, response.NewError(response.CodeBadRequest, err.Error())
	}
	return m.update(clientID, func(v *models.View) {
		v.DepositInput = *in.Value
	})
}

func (m *Manager) SetWithdrawalInput(ctx context.Context, clientID string, in *models.InputUpdate) (*models.View, error) {
	if err := in.Validate(); err != nil {
		return nil, response.NewError(response.CodeBadRequest, err.Error())
	}
	return m.update(clientID, func(v *models.View) {
		v.WithdrawalInput = *in.Value
	})
}

func (m *Manager) Authorize(ctx context.Context, clientID string) (*models.Outcome, error) {
	return m.act(ctx, clientID, models.ActionAuthorize, func(ctx context.Context, _ *models.View) (*models.Outcome, error) {
		auth, err := m.Gateway.EnsureAuthorized(ctx)
		if err != nil {
			return nil, err
		}
		return &models.Outcome{Value: auth.Account}, nil
	})
}

func (m *Manager) Deposit(ctx context.Context, clientID string) (*models.Outcome, error) {
	return m.act(ctx, clientID, models.ActionDeposit, func(ctx context.Context, view *models.View) (*models.Outcome, error) {
		rcpt, err := m.Gateway.Deposit(ctx, view.DepositInput)
		if err != nil {
			return nil, err
		}
		return &models.Outcome{TxHash: rcpt.Hash}, nil
	})
}

func (m *Manager) Withdraw(ctx context.Context, clientID string) (*models.Outcome, error) {
	return m.act(ctx, clientID, models.ActionWithdraw, func(ctx context.Context, view *models.View) (*models.Outcome, error) {
		rcpt, err := m.Gateway.Withdraw(ctx, view.WithdrawalInput)
		if err != nil {
			return nil, err
		}
		return &models.Outcome{TxHash: rcpt.Hash}, nil
	})
}

func (m *Manager) GetBalance(ctx context.Context, clientID string) (*models.Outcome, error) {
	return m.act(ctx, clientID, models.ActionBalance, func(ctx context.Context, _ *models.View) (*models.Outcome, error) {
		balance, err := m.Gateway.GetBalance(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := m.update(clientID, func(v *models.View) {
			v.Balance = balance.Value
		}); err != nil {
			log.FromContext(ctx).Warnw("view expired before the balance arrived", "error", err.Error())
		}
		return &models.Outcome{Value: balance.Value}, nil
	})
}

type actionFunc func(ctx context.Context, view *models.View) (*models.Outcome, error)

// act runs one gateway action on a snapshot of the view. The action is
// detached from the caller: once submitted it runs to completion.
func (m *Manager) act(ctx context.Context, clientID string, action models.Action, fn actionFunc) (*models.Outcome, error) {
	view, err := m.GetView(ctx, clientID)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	logger := log.FromContext(ctx).With("client", clientID, "action", action)
	started := time.Now()

	outcome, err := fn(ctx, view)
	if err != nil {
		kind := gateway.KindOf(err)
		logger.Errorw("action failed", "kind", kind, "stage", gateway.StageOf(err), "error", err.Error())
		outcome = &models.Outcome{Status: models.StatusFailed, Kind: kind, Message: action.FailureMessage()}
		if kind == models.KindProviderUnavailable {
			outcome.Message = models.MessageProviderMissing
		}
	} else {
		logger.Infow("action succeeded", "value", outcome.Value, "tx", outcome.TxHash)
		outcome.Status = models.StatusSucceeded
		outcome.Message = action.SuccessMessage()
	}
	outcome.Action = action

	m.notify(ctx, clientID, outcome)
	m.publish(ctx, clientID, outcome, err, started)
	return outcome, nil
}

func (m *Manager) notify(ctx context.Context, clientID string, outcome *models.Outcome) {
	level := models.LevelSuccess
	switch {
	case outcome.Kind == models.KindProviderUnavailable:
		level = models.LevelWarning
	case !outcome.Succeeded():
		level = models.LevelError
	}
	m.Metrics.RecordNotification(string(level))
	if m.Notifier == nil {
		return
	}
	m.Notifier.Notify(ctx, &models.Notification{
		ClientID: clientID,
		Message:  models.NewToast(level, outcome.Action, outcome.Message, m.Config.AutoClose),
	})
}

func (m *Manager) publish(ctx context.Context, clientID string, outcome *models.Outcome, actionErr error, started time.Time) {
	event := &models.OutcomeEvent{
		ClientID:    clientID,
		Action:      outcome.Action,
		Status:      outcome.Status,
		Kind:        outcome.Kind,
		Stage:       gateway.StageOf(actionErr),
		Value:       outcome.Value,
		TxHash:      outcome.TxHash,
		DurationMs:  time.Since(started).Milliseconds(),
		PublishedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := m.Events.PublishOutcome(ctx, event); err != nil {
		log.FromContext(ctx).Warnw("failed to publish an outcome event", "action", outcome.Action, "error", err.Error())
		m.Metrics.RecordEventPublished("error")
		return
	}
	m.Metrics.RecordEventPublished("ok")
}

func (m *Manager) lookup(clientID string) (*models.View, error) {
	cached, ok := m.views.Get(clientID)
	if !ok {
		return nil, response.NewError(response.CodeNotFound, "view not found")
	}
	return cached.(*models.View), nil
}

// update applies fn to the stored view and extends its lifetime.
func (m *Manager) update(clientID string, fn func(v *models.View)) (*models.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	view, err := m.lookup(clientID)
	if err != nil {
		return nil, err
	}
	fn(view)
	m.views.SetDefault(clientID, view)
	return copyView(view), nil
}

func copyView(v *models.View) *models.View {
	c := *v
	return &c
}
