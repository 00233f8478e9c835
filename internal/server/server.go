package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rezonia/afip-invoicer/internal/credentials"
	"github.com/rezonia/afip-invoicer/internal/model"
	"github.com/rezonia/afip-invoicer/internal/session"
)

// Config holds server configuration
type Config struct {
	Address           string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	Debug             bool
	AllowedOrigins    []string
	RequestsPerMinute int
	JWTSecret         string
}

// Invoicer is the invoicing backend the API exposes.
type Invoicer interface {
	Commit(ctx context.Context, r *model.Receipt) (*model.Receipt, error)
	Fetch(ctx context.Context, identifier string) (*model.Receipt, error)
	FetchLast(ctx context.Context, prefix string, count int) ([]*model.Receipt, error)
	Credentials() credentials.Credentials
	SessionStatus() session.Status
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	invoicer Invoicer
	store    credentials.Store
	log      zerolog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithCredentialStore persists the session after requests that may refresh it.
func WithCredentialStore(store credentials.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLogger sets the access and error logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// NewServer creates a new API server
func NewServer(config *Config, invoicer Invoicer, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:   config,
		router:   gin.New(),
		invoicer: invoicer,
		log:      log.Logger.With().Str("component", "server").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(accessLog(s.log))
	s.router.Use(corsMiddleware(config.AllowedOrigins))
	if config.RequestsPerMinute > 0 {
		s.router.Use(newClientRateLimiter(config.RequestsPerMinute).Middleware())
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	if s.config.JWTSecret != "" {
		v1.Use(bearerAuth([]byte(s.config.JWTSecret)))
	}
	{
		v1.POST("/receipts", s.handleCommit)
		v1.GET("/receipts/:identifier", s.handleFetch)
		v1.GET("/receipts/:identifier/code", s.handleCode)
		v1.GET("/points-of-sale/:pos/types/:type/last", s.handleFetchLast)
		v1.GET("/session", s.handleSession)
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// persist saves the session cache; a failure only costs a fresh login next time.
func (s *Server) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.invoicer.Credentials()); err != nil {
		s.log.Warn().Err(err).Msg("persist credentials")
	}
}
