package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/echocat/slf4g"
	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPHandler returns an http.Handler that serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Server exposes the metrics of a registry at /metrics.
type Server struct {
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// Serve starts listening on address immediately and serves until Close is
// called.
func Serve(address string, reg *prom.Registry) (*Server, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("cannot listen for metrics on %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", HTTPHandler(reg))

	result := &Server{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(result.done)
		if err := result.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.With("address", address).
				WithError(err).
				Error("Metrics server stopped unexpectedly.")
		}
	}()

	log.With("address", ln.Addr()).
		Info("Metrics available.")

	return result, nil
}

func (this *Server) Addr() net.Addr {
	return this.listener.Addr()
}

func (this *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := this.server.Shutdown(ctx)
	<-this.done
	return err
}
