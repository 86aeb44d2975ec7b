package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vaultgate/app/auth"
	"vaultgate/app/dashboard"
	"vaultgate/app/metrics"
	"vaultgate/app/models"
	"vaultgate/app/notifier"
	"vaultgate/pkg/web"
)

const apiPrefix = "/api/v1"

// Rest is a gateway for incoming HTTP requests
type Rest struct {
	Router    chi.Router
	Dashboard dashboard.Service
	Notifier  notifier.Service
	Auth      auth.Service
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

func (s *Rest) Route() {
	if s.Gatherer != nil {
		s.Router.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	s.Router.Route(apiPrefix, func(r chi.Router) {
		// public routes
		r.With(s.measure("session")).Post("/session", s.openSession)

		// private routes
		r.Group(func(r chi.Router) {
			r.Use(s.Auth.GetJWTVerifier(), s.Auth.GetJWTAuthenticator())

			r.Get("/subscribe", s.subscribe)

			r.With(s.measure("view")).Get("/view", s.getView)
			r.With(s.measure("view_deposit")).Put("/view/deposit", s.setDepositInput)
			r.With(s.measure("view_withdrawal")).Put("/view/withdrawal", s.setWithdrawalInput)

			r.With(s.measure("authorize")).Post("/authorize", s.action(s.Dashboard.Authorize))
			r.With(s.measure("deposit")).Post("/deposit", s.action(s.Dashboard.Deposit))
			r.With(s.measure("withdraw")).Post("/withdraw", s.action(s.Dashboard.Withdraw))
			r.With(s.measure("balance")).Post("/balance", s.action(s.Dashboard.GetBalance))
		})
	})
}

func (s *Rest) measure(handler string) func(http.Handler) http.Handler {
	return metrics.HTTPMetricsMiddleware(s.Metrics, handler)
}

func (s *Rest) openSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.Dashboard.OpenView(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	token, err := s.Auth.IssueAccessToken(r.Context(), view.ClientID)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	web.RenderResult(w, r, &models.Session{View: view, AccessToken: token})
}

func (s *Rest) subscribe(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	if err := s.Notifier.Subscribe(r.Context(), &models.NewSubscription{
		ClientID:       accessToken.Client,
		ResponseWriter: w,
		Request:        r,
	}); err != nil {
		web.RenderError(w, r, err)
		return
	}
}

func (s *Rest) getView(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	out, err := s.Dashboard.GetView(r.Context(), accessToken.Client)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}

func (s *Rest) setDepositInput(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	in := new(models.InputUpdate)
	if err := render.DecodeJSON(r.Body, in); err != nil {
		web.RenderError(w, r, err)
		return
	}

	out, err := s.Dashboard.SetDepositInput(r.Context(), accessToken.Client, in)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}

func (s *Rest) setWithdrawalInput(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	in := new(models.InputUpdate)
	if err := render.DecodeJSON(r.Body, in); err != nil {
		web.RenderError(w, r, err)
		return
	}

	out, err := s.Dashboard.SetWithdrawalInput(r.Context(), accessToken.Client, in)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}

type actionHandler func(ctx context.Context, clientID string) (*models.Outcome, error)

// action renders the outcome of a view action. A failed action is still a
// successful request: the failure is part of the outcome.
func (s *Rest) action(fn actionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := models.AccessTokenFromContext(r.Context())
		if err != nil {
			web.RenderError(w, r, err)
			return
		}

		out, err := fn(r.Context(), accessToken.Client)
		if err != nil {
			web.RenderError(w, r, err)
			return
		}

		web.RenderResult(w, r, out)
	}
}
