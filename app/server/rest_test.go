package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultgate/app/auth"
	"vaultgate/app/config"
	"vaultgate/app/dashboard"
	"vaultgate/app/events"
	"vaultgate/app/gateway"
	"vaultgate/app/metrics"
	"vaultgate/app/models"
	"vaultgate/app/notifier"
	"vaultgate/app/wallet"
)

// stubGateway succeeds unless it has no wallet.
type stubGateway struct {
	noWallet bool
	amounts  chan string
}

func (g *stubGateway) fail(action models.Action) error {
	return &gateway.Error{
		Action: action,
		Kind:   models.KindProviderUnavailable,
		Stage:  models.StageAuthorizing,
		Err:    wallet.ErrUnavailable,
	}
}

func (g *stubGateway) EnsureAuthorized(ctx context.Context) (*models.Authorization, error) {
	if g.noWallet {
		return nil, g.fail(models.ActionAuthorize)
	}
	return &models.Authorization{Account: "0x00000000000000000000000000000000000000aa"}, nil
}

func (g *stubGateway) Deposit(ctx context.Context, amount string) (*models.TxReceipt, error) {
	if g.noWallet {
		return nil, g.fail(models.ActionDeposit)
	}
	g.amounts <- amount
	return &models.TxReceipt{Hash: "0x01"}, nil
}

func (g *stubGateway) Withdraw(ctx context.Context, amount string) (*models.TxReceipt, error) {
	if g.noWallet {
		return nil, g.fail(models.ActionWithdraw)
	}
	g.amounts <- amount
	return &models.TxReceipt{Hash: "0x02"}, nil
}

func (g *stubGateway) GetBalance(ctx context.Context) (*models.Balance, error) {
	if g.noWallet {
		return nil, g.fail(models.ActionBalance)
	}
	return &models.Balance{Raw: "1500000000000000000", Value: "1.5"}, nil
}

type testServer struct {
	*httptest.Server
	registry *prometheus.Registry
}

func (s *testServer) openSubscriptions(t *testing.T) float64 {
	t.Helper()
	families, err := s.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "vaultgate_ws_subscriptions" {
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return 0
}

func newTestServer(t *testing.T, gw gateway.Service) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	notifierSvc := notifier.NewManager(m)
	go notifierSvc.Start(ctx)
	rest := &Rest{
		Router: chi.NewRouter(),
		Dashboard: dashboard.NewManager(
			config.Notifications{AutoClose: time.Second, ViewTTL: time.Minute},
			gw, notifierSvc, events.NopPublisher{}, m,
		),
		Notifier: notifierSvc,
		Auth:     auth.NewManager("secret"),
		Metrics:  m,
		Gatherer: registry,
	}
	rest.Route()

	srv := httptest.NewServer(rest.Router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{Server: srv, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, json.RawMessage) {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	_ = json.Unmarshal(data, &envelope)
	return resp.StatusCode, envelope.Result
}

func (s *testServer) openSession(t *testing.T) *models.Session {
	t.Helper()
	status, result := s.do(t, http.MethodPost, "/api/v1/session", "", "")
	require.Equal(t, http.StatusCreated, status)

	session := new(models.Session)
	require.NoError(t, json.Unmarshal(result, session))
	require.NotEmpty(t, session.AccessToken)
	return session
}

func TestRest_Session(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})
	session := srv.openSession(t)
	assert.Equal(t, models.InitialBalance, session.View.Balance)

	status, result := srv.do(t, http.MethodGet, "/api/v1/view", session.AccessToken, "")
	require.Equal(t, http.StatusOK, status)
	view := new(models.View)
	require.NoError(t, json.Unmarshal(result, view))
	assert.Equal(t, session.View.ClientID, view.ClientID)
}

func TestRest_Unauthorized(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	for _, path := range []string{"/api/v1/view", "/api/v1/subscribe"} {
		status, _ := srv.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
	status, _ := srv.do(t, http.MethodPost, "/api/v1/deposit", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRest_DepositFlow(t *testing.T) {
	gw := &stubGateway{amounts: make(chan string, 1)}
	srv := newTestServer(t, gw)
	session := srv.openSession(t)

	status, result := srv.do(t, http.MethodPut, "/api/v1/view/deposit", session.AccessToken, `{"value":"250"}`)
	require.Equal(t, http.StatusOK, status)
	view := new(models.View)
	require.NoError(t, json.Unmarshal(result, view))
	assert.Equal(t, "250", view.DepositInput)

	status, result = srv.do(t, http.MethodPost, "/api/v1/deposit", session.AccessToken, "")
	require.Equal(t, http.StatusOK, status)
	outcome := new(models.Outcome)
	require.NoError(t, json.Unmarshal(result, outcome))
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "Deposit Successful!", outcome.Message)
	assert.Equal(t, "250", <-gw.amounts)
}

func TestRest_BadInput(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})
	session := srv.openSession(t)

	status, _ := srv.do(t, http.MethodPut, "/api/v1/view/withdrawal", session.AccessToken, `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = srv.do(t, http.MethodPut, "/api/v1/view/withdrawal", session.AccessToken, `{`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRest_BalanceWithoutWallet(t *testing.T) {
	srv := newTestServer(t, &stubGateway{noWallet: true})
	session := srv.openSession(t)

	status, result := srv.do(t, http.MethodPost, "/api/v1/balance", session.AccessToken, "")
	require.Equal(t, http.StatusOK, status)
	outcome := new(models.Outcome)
	require.NoError(t, json.Unmarshal(result, outcome))
	assert.Equal(t, models.KindProviderUnavailable, outcome.Kind)
	assert.Equal(t, models.MessageProviderMissing, outcome.Message)

	_, result = srv.do(t, http.MethodGet, "/api/v1/view", session.AccessToken, "")
	view := new(models.View)
	require.NoError(t, json.Unmarshal(result, view))
	assert.Equal(t, "0 ETH", models.BalanceText(view.Balance))
}

func TestRest_SubscribeReceivesToasts(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})
	session := srv.openSession(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+session.AccessToken)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/subscribe"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return srv.openSubscriptions(t) == 1
	}, time.Second, 5*time.Millisecond)

	status, _ := srv.do(t, http.MethodPost, "/api/v1/balance", session.AccessToken, "")
	require.Equal(t, http.StatusOK, status)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var toast models.Toast
	require.NoError(t, conn.ReadJSON(&toast))
	assert.Equal(t, models.LevelSuccess, toast.Level)
	assert.Equal(t, models.ActionBalance, toast.Action)
	assert.Equal(t, "Balance Fetched Successfully!", toast.Text)
	assert.Equal(t, int64(1000), toast.AutoClose)
}

func TestRest_Metrics(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})
	srv.openSession(t)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `vaultgate_http_requests_total{handler="session",method="POST",status="2xx"} 1`)
}
