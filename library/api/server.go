package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kapitoshk4/library-service-api/library/features/command/borrowbook"
	"github.com/kapitoshk4/library-service-api/library/features/command/confirmpayment"
	"github.com/kapitoshk4/library-service-api/library/features/command/renewpayment"
	"github.com/kapitoshk4/library-service-api/library/features/command/returnbook"
	"github.com/kapitoshk4/library-service-api/library/features/query/listborrowings"
	"github.com/kapitoshk4/library-service-api/library/features/query/listpayments"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/auth"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

var (
	// ErrNilStore is returned when a Server is created without a store.
	ErrNilStore = errors.New("store must not be nil")

	// ErrNilTokenVerifier is returned when a Server is created without a token verifier.
	ErrNilTokenVerifier = errors.New("token verifier must not be nil")

	// ErrMissingHandler is returned when one of the Handlers is nil.
	ErrMissingHandler = errors.New("all command and query handlers are required")
)

// TokenVerifier turns a bearer token into the authenticated principal.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// Handlers are the command and query handlers the routes delegate to.
// In production they are wrapped with the observable wrappers.
type Handlers struct {
	BorrowBook     shell.CoreCommandHandler[borrowbook.Command, borrowbook.Result]
	ReturnBook     shell.CoreCommandHandler[returnbook.Command, returnbook.Result]
	ConfirmPayment shell.CoreCommandHandler[confirmpayment.Command, librarystore.Payment]
	RenewPayment   shell.CoreCommandHandler[renewpayment.Command, librarystore.Payment]
	ListBorrowings shell.CoreQueryHandler[listborrowings.Query, listborrowings.Borrowings]
	ListPayments   shell.CoreQueryHandler[listpayments.Query, listpayments.Payments]
}

func (h Handlers) complete() bool {
	return h.BorrowBook != nil &&
		h.ReturnBook != nil &&
		h.ConfirmPayment != nil &&
		h.RenewPayment != nil &&
		h.ListBorrowings != nil &&
		h.ListPayments != nil
}

// Server builds the gin engine of the service.
type Server struct {
	store    librarystore.Store
	handlers Handlers
	tokens   TokenVerifier
	policy   auth.Policy
	gatherer prometheus.Gatherer
	now      func() time.Time

	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	requestScope     RequestScopeFunc
}

// RequestScopeFunc derives the context a request is handled with, e.g. to attach a request logger.
type RequestScopeFunc func(ctx context.Context, requestID string) context.Context

// Option configures a Server.
type Option func(*Server)

// WithMetricsGatherer serves the gatherer at /metrics. Without it the route is not registered.
func WithMetricsGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithClock replaces time.Now as the source of borrow and confirmation times.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithMetrics records request counts and durations.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Server) {
		s.metricsCollector = collector
	}
}

// WithTracing starts one span per request.
func WithTracing(collector shell.TracingCollector) Option {
	return func(s *Server) {
		s.tracingCollector = collector
	}
}

func WithLogger(logger shell.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Server) {
		s.contextualLogger = logger
	}
}

// WithRequestScope runs scope for every request after the request id is known.
func WithRequestScope(scope RequestScopeFunc) Option {
	return func(s *Server) {
		s.requestScope = scope
	}
}

// NewServer creates a Server.
func NewServer(store librarystore.Store, handlers Handlers, tokens TokenVerifier, options ...Option) (*Server, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	if tokens == nil {
		return nil, ErrNilTokenVerifier
	}

	if !handlers.complete() {
		return nil, ErrMissingHandler
	}

	server := &Server{
		store:    store,
		handlers: handlers,
		tokens:   tokens,
		policy:   auth.NewPolicy(),
		now:      time.Now,
	}

	for _, option := range options {
		option(server)
	}

	return server, nil
}

// Router builds the gin engine with all routes and middlewares.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.observe())

	router.GET("/healthz", func(c *gin.Context) {
		respond(c, http.StatusOK, gin.H{"status": "ok"})
	})

	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")

	public := api.Group("/payments")
	public.GET("/success", s.confirmPayment)
	public.GET("/cancel", s.cancelPayment)

	authenticated := api.Group("", s.authenticate())

	books := authenticated.Group("/books")
	books.GET("/", s.listBooks)
	books.GET("/:id/", s.getBook)
	books.POST("/", s.require(s.policy.CanManageBooks), s.createBook)
	books.PUT("/:id/", s.require(s.policy.CanManageBooks), s.replaceBook)
	books.PATCH("/:id/", s.require(s.policy.CanManageBooks), s.patchBook)
	books.DELETE("/:id/", s.require(s.policy.CanManageBooks), s.deleteBook)

	borrowings := authenticated.Group("/borrowings")
	borrowings.GET("/", s.listBorrowings)
	borrowings.GET("/:id/", s.getBorrowing)
	borrowings.POST("/", s.createBorrowing)
	borrowings.POST("/:id/return/", s.returnBorrowing)
	borrowings.DELETE("/:id/", s.require(s.policy.CanManageBorrowings), s.deleteBorrowing)

	payments := authenticated.Group("/payments")
	payments.GET("/", s.listPayments)
	payments.GET("/:id/", s.getPayment)
	payments.POST("/renew", s.renewPayment)

	return router
}
