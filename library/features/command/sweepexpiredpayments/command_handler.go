package sweepexpiredpayments

import (
	"context"
	"errors"

	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/checkout"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	logMsgProviderFailed = "checkout session status unavailable, using stored expiry"
	logMsgExpireFailed   = "expiring payment failed"
	logMsgPaymentExpired = "payment expired"

	logAttrPaymentID = "payment_id"
	logAttrSessionID = "session_id"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	ListPendingPayments(ctx context.Context) ([]librarystore.Payment, error)
	WithTx(ctx context.Context, fn librarystore.TxFunc) error
}

// SessionProvider reports the authoritative state of a checkout session.
type SessionProvider interface {
	GetSession(ctx context.Context, sessionID string) (checkout.Session, error)
}

// CommandHandler sweeps all Pending payments: List -> per payment: Ask provider -> Lock -> Decide -> Update.
type CommandHandler struct {
	store            Store
	provider         SessionProvider
	retryOptions     []shell.RetryOption
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for each per-payment transaction.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithLogger sets the logger for skipped payments.
func WithLogger(logger shell.Logger) Option {
	return func(h *CommandHandler) {
		h.logger = logger
	}
}

// WithContextualLogger sets the contextual logger for skipped payments.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(h *CommandHandler) {
		h.contextualLogger = logger
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, provider SessionProvider, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:    store,
		provider: provider,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle runs one sweep. Storage failures of single payments do not stop the sweep;
// they are returned joined after every payment was visited.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var (
		result    Result
		sweepErrs []error
		total     shell.RetryMetrics
	)

	ctx = librarystore.WithStrongConsistency(ctx)

	pending, err := h.store.ListPendingPayments(ctx)
	if err != nil {
		return Result{}, shell.NewErrorResult(shell.RetryMetrics{Attempts: 1}), err
	}

	for _, payment := range pending {
		if ctx.Err() != nil {
			sweepErrs = append(sweepErrs, ctx.Err())
			break
		}

		result.Checked++

		session := h.askProvider(ctx, payment, &result)

		var expired bool

		retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
			var execErr error
			expired, execErr = h.expire(retryCtx, payment.SessionID, session, command)

			return execErr
		}, h.retryOptions...)

		total = shell.CombineRetryMetrics(total, retryMetrics)

		if err != nil {
			shell.LogError(ctx, h.logger, h.contextualLogger, logMsgExpireFailed,
				logAttrPaymentID, payment.ID, shell.LogAttrError, err.Error())
			sweepErrs = append(sweepErrs, err)

			continue
		}

		if expired {
			result.Expired++
			shell.LogInfo(ctx, h.logger, h.contextualLogger, logMsgPaymentExpired, logAttrPaymentID, payment.ID)
		}
	}

	if len(sweepErrs) > 0 {
		return result, shell.NewErrorResult(total), errors.Join(sweepErrs...)
	}

	if result.Expired == 0 {
		return result, shell.NewIdempotentResult(total), nil
	}

	return result, shell.NewSuccessResult(total), nil
}

func (h CommandHandler) askProvider(ctx context.Context, payment librarystore.Payment, result *Result) *checkout.Session {
	session, err := h.provider.GetSession(ctx, payment.SessionID)
	if err != nil {
		result.ProviderFailures++
		shell.LogWarn(ctx, h.logger, h.contextualLogger, logMsgProviderFailed,
			logAttrPaymentID, payment.ID, logAttrSessionID, payment.SessionID, shell.LogAttrError, err.Error())

		return nil
	}

	return &session
}

func (h CommandHandler) expire(
	ctx context.Context,
	sessionID string,
	session *checkout.Session,
	command Command,
) (bool, error) {
	var expired bool

	err := h.store.WithTx(ctx, func(ctx context.Context, tx librarystore.Tx) error {
		payment, err := tx.LockPaymentBySession(ctx, sessionID)
		if errors.Is(err, librarystore.ErrNotFound) {
			// renewed or deleted since the list was read
			return nil
		}

		if err != nil {
			return err
		}

		if Decide(payment, session, command.SweptAt).IsIdempotent() {
			return nil
		}

		if _, err := tx.UpdatePaymentStatus(ctx, payment.ID, librarystore.PaymentStatusExpired); err != nil {
			return err
		}

		expired = true

		return nil
	})

	return expired, err
}
