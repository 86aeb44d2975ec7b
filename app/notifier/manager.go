package notifier

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"vaultgate/app/metrics"
	"vaultgate/app/models"
	"vaultgate/pkg/log"
	"vaultgate/pkg/uuid"
)

const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 30 * time.Second

	// send pings to peer with this period, must be less than pongWait
	pingPeriod = (pongWait * 8) / 10

	// toasts queued per subscriber before new ones are dropped
	sendBuffer = 16
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

type unsubscribeHandler func(*subscription)

type subscription struct {
	id            string
	clientID      string
	conn          *websocket.Conn
	send          chan interface{}
	onUnsubscribe unsubscribeHandler
}

func (s *subscription) read() {
	defer func() {
		if s.onUnsubscribe != nil {
			s.onUnsubscribe(s)
		}
		_ = s.conn.Close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// clients never talk back, reading only drives pongs and close frames
		if _, _, err := s.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *subscription) write() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok { // the channel was closed by notifier
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

type subscriptions map[string]*subscription

// Manager fans toasts out to the websocket subscribers of a client view.
// All subscription bookkeeping happens on the Start goroutine.
type Manager struct {
	clients       map[string]subscriptions
	notifications chan *models.Notification
	register      chan *subscription
	unregister    chan *subscription
	done          chan struct{}
	metrics       *metrics.Metrics
}

func NewManager(m *metrics.Metrics) *Manager {
	return &Manager{
		metrics:       m,
		clients:       make(map[string]subscriptions),
		notifications: make(chan *models.Notification),
		register:      make(chan *subscription),
		unregister:    make(chan *subscription),
		done:          make(chan struct{}),
	}
}

func (m *Manager) Subscribe(ctx context.Context, sub *models.NewSubscription) error {
	log.AddFields(ctx, "subscriber", sub.ClientID)

	conn, err := upgrader.Upgrade(sub.ResponseWriter, sub.Request, nil)
	if err != nil {
		return errors.Wrap(err, "failed to upgrade a connection")
	}

	s := &subscription{
		id:       uuid.NewSortableID(),
		clientID: sub.ClientID,
		conn:     conn,
		send:     make(chan interface{}, sendBuffer),
		onUnsubscribe: func(s *subscription) {
			select {
			case m.unregister <- s:
			case <-m.done:
			}
		},
	}

	select {
	case m.register <- s:
		return nil
	case <-m.done:
		_ = conn.Close()
		return errors.New("notifier is stopped")
	}
}

// Notify hands the toast over to the subscribers of the client. It gives up
// when ctx is done or the notifier has stopped.
func (m *Manager) Notify(ctx context.Context, notification *models.Notification) {
	log.FromContext(ctx).Debugw("notify by ws", "client", notification.ClientID, "message", notification.Message)
	select {
	case m.notifications <- notification:
	case <-ctx.Done():
	case <-m.done:
	}
}

// Start serves subscriptions until ctx is done, then closes them all.
func (m *Manager) Start(ctx context.Context) {
	log.Info("starting notifier service")
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			for _, subs := range m.clients {
				for id, s := range subs {
					delete(subs, id)
					close(s.send)
					m.metrics.SubscriptionClosed()
				}
			}
			log.Info("notifier service stopped")
			return
		case sub := <-m.register:
			subs, ok := m.clients[sub.clientID]
			if !ok {
				subs = make(subscriptions)
				m.clients[sub.clientID] = subs
			}
			subs[sub.id] = sub
			m.metrics.SubscriptionOpened()
			go sub.read()
			go sub.write()
		case sub := <-m.unregister:
			if subs, ok := m.clients[sub.clientID]; ok {
				if _, ok := subs[sub.id]; ok {
					delete(subs, sub.id)
					close(sub.send)
					m.metrics.SubscriptionClosed()
				}
				if len(subs) == 0 {
					delete(m.clients, sub.clientID)
				}
			}
		case notification := <-m.notifications:
			for _, s := range m.clients[notification.ClientID] {
				select {
				case s.send <- notification.Message:
				default:
					log.Warnw("subscriber is too slow, toast dropped", "client", s.clientID, "subscription", s.id)
				}
			}
		}
	}
}
