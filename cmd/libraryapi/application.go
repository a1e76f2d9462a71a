package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kapitoshk4/library-service-api/library/api"
	"github.com/kapitoshk4/library-service-api/library/features/command/borrowbook"
	"github.com/kapitoshk4/library-service-api/library/features/command/confirmpayment"
	"github.com/kapitoshk4/library-service-api/library/features/command/renewpayment"
	"github.com/kapitoshk4/library-service-api/library/features/command/returnbook"
	"github.com/kapitoshk4/library-service-api/library/features/query/listborrowings"
	"github.com/kapitoshk4/library-service-api/library/features/query/listpayments"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/auth"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/checkout"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/config"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/notifier"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/observable"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/paymentsession"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/scheduler"
	"github.com/kapitoshk4/library-service-api/librarystore"
	"github.com/kapitoshk4/library-service-api/librarystore/oteladapters"
	"github.com/kapitoshk4/library-service-api/librarystore/zapadapter"
)

const instrumentationName = "github.com/kapitoshk4/library-service-api"

// observability bundles the collectors every component is configured with.
type observability struct {
	logger  *zapadapter.Logger
	metrics *oteladapters.MetricsCollector
	tracing *oteladapters.TracingCollector
}

type application struct {
	router    *gin.Engine
	scheduler *scheduler.Scheduler
	providers *config.ObservabilityProviders
	closers   []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

//nolint:funlen
func newApplication(ctx context.Context, cfg config.Config, zapLogger *zap.Logger) (*application, error) {
	app := &application{}

	providers, err := config.NewObservabilityProviders(ctx, cfg.Service)
	if err != nil {
		return nil, err
	}
	app.providers = providers

	obs := observability{
		logger:  zapadapter.NewLogger(zapLogger),
		metrics: oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(instrumentationName)),
		tracing: oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(instrumentationName)),
	}

	store, closeStore, err := openStore(ctx, cfg.Postgres, obs)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	if cfg.Postgres.Migrate {
		if err = store.Migrate(ctx); err != nil {
			app.close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	stripe, err := checkout.NewStripeClient(
		cfg.Stripe.SecretKey,
		checkout.WithBaseURL(cfg.Stripe.BaseURL),
		checkout.WithHTTPClient(&http.Client{Timeout: cfg.Stripe.Timeout}),
	)
	if err != nil {
		app.close()
		return nil, err
	}

	opener, err := paymentsession.NewOpener(
		stripe,
		paymentsession.SuccessURL(cfg.HTTP.PublicBaseURL),
		paymentsession.CancelURL(cfg.HTTP.PublicBaseURL),
		paymentsession.WithCurrency(cfg.Stripe.Currency),
	)
	if err != nil {
		app.close()
		return nil, err
	}

	gateway, err := newNotifierGateway(cfg.Telegram, obs)
	if err != nil {
		app.close()
		return nil, err
	}

	handlers, err := newAPIHandlers(store, stripe, opener, gateway, obs)
	if err != nil {
		app.close()
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, auth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		app.close()
		return nil, err
	}

	server, err := api.NewServer(store, handlers, tokens,
		api.WithMetricsGatherer(providers.Registry),
		api.WithMetrics(obs.metrics),
		api.WithTracing(obs.tracing),
		api.WithContextualLogger(obs.logger),
		api.WithRequestScope(func(ctx context.Context, requestID string) context.Context {
			return zapadapter.ContextWithLogger(ctx, zapLogger.With(zap.String("request_id", requestID)))
		}),
	)
	if err != nil {
		app.close()
		return nil, err
	}
	app.router = server.Router()

	redisClient := config.NewRedisClient(cfg.Redis)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}

	app.scheduler, err = newScheduler(cfg.Scheduler, store, stripe, opener, gateway, redisClient, obs)
	if err != nil {
		app.close()
		return nil, err
	}

	return app, nil
}

func newNotifierGateway(cfg config.TelegramConfig, obs observability) (*notifier.Gateway, error) {
	options := []notifier.Option{notifier.WithContextualLogger(obs.logger)}

	if cfg.BotToken == "" {
		return notifier.NewGateway(nil, options...), nil
	}

	sender, err := notifier.NewTelegramSender(
		cfg.BotToken,
		cfg.ChatID,
		notifier.WithTelegramBaseURL(cfg.BaseURL),
		notifier.WithTelegramHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, err
	}

	return notifier.NewGateway(sender, options...), nil
}

func newAPIHandlers(
	store librarystore.Store,
	provider checkout.Provider,
	opener paymentsession.Opener,
	gateway shell.Notifier,
	obs observability,
) (api.Handlers, error) {
	borrowBook, err := wrapCommand[borrowbook.Command, borrowbook.Result](
		borrowbook.NewCommandHandler(store, opener, borrowbook.WithNotifier(gateway)), obs)
	if err != nil {
		return api.Handlers{}, err
	}

	returnBook, err := wrapCommand[returnbook.Command, returnbook.Result](
		returnbook.NewCommandHandler(store), obs)
	if err != nil {
		return api.Handlers{}, err
	}

	confirmPayment, err := wrapCommand[confirmpayment.Command, librarystore.Payment](
		confirmpayment.NewCommandHandler(store, provider, confirmpayment.WithNotifier(gateway)), obs)
	if err != nil {
		return api.Handlers{}, err
	}

	renewPayment, err := wrapCommand[renewpayment.Command, librarystore.Payment](
		renewpayment.NewCommandHandler(store, opener), obs)
	if err != nil {
		return api.Handlers{}, err
	}

	listBorrowings, err := wrapQuery[listborrowings.Query, listborrowings.Borrowings](
		listborrowings.NewQueryHandler(store), obs)
	if err != nil {
		return api.Handlers{}, err
	}

	listPayments, err := wrapQuery[listpayments.Query, listpayments.Payments](
		listpayments.NewQueryHandler(store), obs)
	if err != nil {
		return api.Handlers{}, err
	}

	return api.Handlers{
		BorrowBook:     borrowBook,
		ReturnBook:     returnBook,
		ConfirmPayment: confirmPayment,
		RenewPayment:   renewPayment,
		ListBorrowings: listBorrowings,
		ListPayments:   listPayments,
	}, nil
}

func wrapCommand[C shell.Command, R any](
	handler shell.CoreCommandHandler[C, R],
	obs observability,
) (shell.CoreCommandHandler[C, R], error) {
	return observable.NewCommandWrapper(handler,
		observable.WithCommandMetrics[C, R](obs.metrics),
		observable.WithCommandTracing[C, R](obs.tracing),
		observable.WithCommandContextualLogging[C, R](obs.logger),
	)
}

func wrapQuery[Q shell.Query, R any](
	handler shell.CoreQueryHandler[Q, R],
	obs observability,
) (shell.CoreQueryHandler[Q, R], error) {
	return observable.NewQueryWrapper(handler,
		observable.WithQueryMetrics[Q, R](obs.metrics),
		observable.WithQueryTracing[Q, R](obs.tracing),
		observable.WithQueryContextualLogging[Q, R](obs.logger),
	)
}
