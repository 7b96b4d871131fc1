package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/doeshing/medetech-go/internal/ports"
)

const shutdownTimeout = 5 * time.Second

// Serve runs handler on listener until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, listener net.Listener, handler http.Handler, log ports.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http api listening", map[string]interface{}{"addr": listener.Addr().String()})
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info("http api stopped", nil)
		return nil
	}
}
