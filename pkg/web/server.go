package web

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"vaultgate/pkg/log"
)

func Start(server *http.Server) {
	log.Infow("starting an http server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("http server closed")
			return
		}
		log.Errorw("http server stopped unexpectedly", "error", err.Error())
	}
}

func Shutdown(server *http.Server, shutdownTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shutdown the http server")
	}
	log.Info("http server stopped")
	return nil
}
