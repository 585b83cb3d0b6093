// Package rpc exposes verified execution state over the Ethereum
// JSON-RPC protocol, so ordinary wallets and tooling can talk to the
// light client the way they talk to a full node. Reads are answered
// exclusively from proven state; the untrusted provider is never
// consulted for anything a response depends on.
package rpc

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/execution"
	"github.com/prysmaticlabs/lumen/runtime"
	"github.com/rs/cors"
)

var _ runtime.Service = (*Service)(nil)

// Config parameters for setting up the JSON-RPC service.
type config struct {
	httpAddr       string
	allowedOrigins []string
	clientVersion  string
	client         *execution.Client
}

// Option is a functional parameter for the Service.
type Option func(*Service) error

// WithHTTPAddr sets the listen address for the HTTP server.
func WithHTTPAddr(addr string) Option {
	return func(s *Service) error {
		s.cfg.httpAddr = addr
		return nil
	}
}

// WithAllowedOrigins sets the origins CORS responses allow.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Service) error {
		s.cfg.allowedOrigins = origins
		return nil
	}
}

// WithClientVersion sets the string served by web3_clientVersion.
func WithClientVersion(version string) Option {
	return func(s *Service) error {
		s.cfg.clientVersion = version
		return nil
	}
}

// WithExecutionClient sets the verified execution client backing the eth
// namespace.
func WithExecutionClient(client *execution.Client) Option {
	return func(s *Service) error {
		s.cfg.client = client
		return nil
	}
}

// Service serves the eth JSON-RPC namespace over verified state.
type Service struct {
	cfg          *config
	server       *http.Server
	methods      map[string]handlerFunc
	cancel       context.CancelFunc
	ctx          context.Context
	startFailure error
}

// NewService returns a new instance of the Service.
func NewService(ctx context.Context, opts ...Option) (*Service, error) {
	s := &Service{
		ctx: ctx,
		cfg: &config{},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.cfg.client == nil {
		return nil, errors.New("execution client option not configured")
	}
	if s.cfg.clientVersion == "" {
		s.cfg.clientVersion = "lumen"
	}
	s.methods = s.routes()

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleHTTP).Methods(http.MethodPost, http.MethodOptions)
	s.server = &http.Server{
		Addr:              s.cfg.httpAddr,
		Handler:           s.corsMiddleware(router),
		ReadHeaderTimeout: time.Second,
	}
	return s, nil
}

// Start the JSON-RPC service.
func (s *Service) Start() {
	_, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel

	go func() {
		log.WithField("address", s.cfg.httpAddr).Info("Starting JSON-RPC server")
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("Failed to start JSON-RPC server")
			s.startFailure = err
			return
		}
	}()
}

// Status of the JSON-RPC server. Returns an error if this service is
// unhealthy.
func (s *Service) Status() error {
	if s.startFailure != nil {
		return s.startFailure
	}
	return nil
}

// Stop the JSON-RPC server with a graceful shutdown.
func (s *Service) Stop() error {
	if s.server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(s.ctx, 2*time.Second)
		defer shutdownCancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				log.Warn("Existing connections terminated")
			} else {
				log.WithError(err).Error("Failed to gracefully shut down server")
			}
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Service) corsMiddleware(h http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.allowedOrigins,
		AllowedMethods:   []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowCredentials: true,
		MaxAge:           600,
		AllowedHeaders:   []string{"*"},
	})
	return c.Handler(h)
}
