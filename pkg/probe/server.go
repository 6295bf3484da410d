package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"price_simulator/pkg/contextx"
	"price_simulator/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	httpServerReadHeaderTimeout = 5 * time.Second
	readinessCheckTimeout       = 2 * time.Second
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Check reports whether a dependency is ready to serve traffic.
type Check struct {
	Name  string
	Check func(context.Context) error
}

type Server struct {
	listenAddress string
	options       Options
	checks        []Check
}

type Options struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type readyResponse struct {
	Options

	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

func NewServer(
	listenAddress string,
	options Options,
	checks ...Check,
) Server {
	return Server{
		listenAddress: listenAddress,
		options:       options,
		checks:        checks,
	}
}

// Handler exposes the probe routes without binding a listener.
func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handlerHealthz)
	mux.HandleFunc("/ready", s.handlerReady)

	return mux
}

func (s Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr:              s.listenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: httpServerReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		if err := httpServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger(ctx).Error("httpServer.Shutdown", logx.Error(err))
		}
	}()

	logger(ctx).Info("probe server started", slog.String("address", s.listenAddress))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.ListenAndServe: %w", err)
	}

	logger(ctx).Info("probe server stopped")

	return nil
}

func (s Server) handlerHealthz(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, s.options)
}

func (s Server) handlerReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessCheckTimeout)
	defer cancel()

	response := readyResponse{
		Options: s.options,
		Ready:   true,
	}

	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			if response.Checks == nil {
				response.Checks = make(map[string]string, len(s.checks))
			}

			response.Ready = false
			response.Checks[c.Name] = err.Error()
		}
	}

	status := http.StatusOK
	if !response.Ready {
		status = http.StatusServiceUnavailable
	}

	s.write(w, status, response)
}

func (s Server) write(w http.ResponseWriter, status int, body any) {
	b, _ := json.Marshal(body) //nolint:errcheck,errchkjson

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b) //nolint:errcheck
}
