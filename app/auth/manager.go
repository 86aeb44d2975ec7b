package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"

	"vaultgate/app/models"
	"vaultgate/pkg/log"
	"vaultgate/pkg/response"
	"vaultgate/pkg/web"
)

const signingAlgorithm = "HS256"

type Manager struct {
	JWTAuth *jwtauth.JWTAuth
}

func NewManager(secret string) *Manager {
	return &Manager{
		JWTAuth: jwtauth.New(signingAlgorithm, []byte(secret), nil),
	}
}

func (m *Manager) GetJWTVerifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(m.JWTAuth)
}

func (m *Manager) GetJWTAuthenticator() func(http.Handler) http.Handler {
	return Authenticator
}

// IssueAccessToken grants the bearer access to the view of the client.
func (m *Manager) IssueAccessToken(ctx context.Context, clientID string) (string, error) {
	log.AddFields(ctx, "issue token for", clientID)

	accessToken := models.NewAccessToken(clientID)
	return accessToken.Encode(m.JWTAuth)
}

func Authenticator(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())

		if err != nil {
			web.RenderError(w, r, response.NewError(response.CodeUnauthorized, err.Error()))
			return
		}

		if token == nil || !token.Valid {
			web.RenderError(
				w, r, response.NewError(response.CodeUnauthorized, http.StatusText(http.StatusUnauthorized)),
			)
			return
		}

		// token is authenticated, pass it through
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
