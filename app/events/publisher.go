package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"vaultgate/app/config"
	"vaultgate/app/models"
	"vaultgate/pkg/log"
)

// Publisher ships action outcomes to whoever listens downstream.
type Publisher interface {
	// PublishOutcome publishes the event to "<subject>.<action>".
	PublishOutcome(ctx context.Context, event *models.OutcomeEvent) error
	Close() error
}

// NatsPublisher publishes outcome events over core NATS.
type NatsPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher connects to NATS when a url is configured and falls back to a
// publisher that drops everything otherwise.
func NewPublisher(cfg config.Events) (Publisher, error) {
	if cfg.NatsUrl == "" {
		log.Info("no nats url configured, outcome events are not published")
		return NopPublisher{}, nil
	}

	nc, err := nats.Connect(cfg.NatsUrl,
		nats.Name("vaultgate-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to nats at %s", cfg.NatsUrl)
	}

	log.Infow("nats publisher initialized", "url", cfg.NatsUrl, "subject", cfg.Subject)
	return &NatsPublisher{nc: nc, subject: cfg.Subject}, nil
}

func Subject(prefix string, action models.Action) string {
	return prefix + "." + string(action)
}

func (p *NatsPublisher) PublishOutcome(ctx context.Context, event *models.OutcomeEvent) error {
	subject := Subject(p.subject, event.Action)

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal an outcome event")
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return errors.Wrapf(err, "failed to publish to %s", subject)
	}

	log.FromContext(ctx).Debugw("published outcome event", "subject", subject, "status", event.Status)
	return nil
}

// Close flushes pending events and closes the connection.
func (p *NatsPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	err := p.nc.Drain()
	log.Info("nats publisher closed")
	return errors.Wrap(err, "failed to drain nats connection")
}

type NopPublisher struct{}

func (NopPublisher) PublishOutcome(ctx context.Context, event *models.OutcomeEvent) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
