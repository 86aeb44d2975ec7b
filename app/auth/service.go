package auth

import (
	"context"
	"net/http"
)

type Service interface {
	GetJWTVerifier() func(http.Handler) http.Handler
	GetJWTAuthenticator() func(http.Handler) http.Handler
	IssueAccessToken(ctx context.Context, clientID string) (string, error)
}
