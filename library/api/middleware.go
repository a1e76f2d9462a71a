package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/auth"
)

const (
	// HTTPRequestsMetric counts requests by method, route and status code.
	HTTPRequestsMetric = "http_requests_total"

	// HTTPRequestDurationMetric tracks request duration by method, route and status code.
	HTTPRequestDurationMetric = "http_request_duration_seconds"

	// HeaderRequestID carries the request id. An incoming value is kept, otherwise one is generated.
	HeaderRequestID = "X-Request-ID"

	spanNameHTTPRequest = "http.request"

	logMsgRequestCompleted = "http request completed"
	logMsgRequestFailed    = "http request failed"

	logAttrMethod     = "method"
	logAttrRoute      = "route"
	logAttrStatusCode = "status_code"
	logAttrRequestID  = "request_id"
	logAttrUserID     = "user_id"

	principalKey = "principal"
	unknownRoute = "unmatched"
)

type requestIDKey struct{}

// RequestIDFromContext returns the id of the request ctx belongs to.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// observe extracts the W3C trace context, assigns the request id, and records one span,
// one log line and the request metrics per request.
func (s *Server) observe() gin.HandlerFunc {
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = unknownRoute
		}

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx = context.WithValue(ctx, requestIDKey{}, requestID)
		if s.requestScope != nil {
			ctx = s.requestScope(ctx, requestID)
		}
		ctx, span := shell.StartSpan(ctx, s.tracingCollector, spanNameHTTPRequest, logAttrRoute, route)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		labels := map[string]string{
			logAttrMethod:     c.Request.Method,
			logAttrRoute:      route,
			logAttrStatusCode: strconv.Itoa(statusCode),
		}

		s.recordRequest(ctx, labels, duration)

		args := []any{
			logAttrMethod, c.Request.Method,
			logAttrRoute, route,
			logAttrStatusCode, statusCode,
			logAttrRequestID, requestID,
			shell.LogAttrDurationMS, shell.ToMilliseconds(duration),
		}

		if statusCode >= http.StatusInternalServerError {
			err := lastError(c)
			if err != nil {
				args = append(args, shell.LogAttrError, err.Error())
			}

			shell.FinishSpan(s.tracingCollector, span, shell.StatusError, duration, err)
			shell.LogError(ctx, s.logger, s.contextualLogger, logMsgRequestFailed, args...)

			return
		}

		shell.FinishSpan(s.tracingCollector, span, shell.StatusSuccess, duration, nil)
		shell.LogInfo(ctx, s.logger, s.contextualLogger, logMsgRequestCompleted, args...)
	}
}

func (s *Server) recordRequest(ctx context.Context, labels map[string]string, duration time.Duration) {
	if s.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := s.metricsCollector.(shell.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, HTTPRequestsMetric, labels)
		contextualCollector.RecordDurationContext(ctx, HTTPRequestDurationMetric, duration, labels)

		return
	}

	s.metricsCollector.IncrementCounter(HTTPRequestsMetric, labels)
	s.metricsCollector.RecordDuration(HTTPRequestDurationMetric, duration, labels)
}

// authenticate requires a valid bearer token and stores the principal in the gin context.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			s.abort(c, errUnauthenticated)
			return
		}

		principal, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			s.abort(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// require aborts with 403 unless the principal has the capability.
func (s *Server) require(capability func(auth.Principal) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !capability(principalOf(c)) {
			s.abort(c, errForbidden)
			return
		}

		c.Next()
	}
}

func lastError(c *gin.Context) error {
	if last := c.Errors.Last(); last != nil {
		return last.Err
	}

	return nil
}

func principalOf(c *gin.Context) auth.Principal {
	principal, _ := c.Get(principalKey)
	p, _ := principal.(auth.Principal)

	return p
}
