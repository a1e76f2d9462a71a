// Package observable wraps command and query handlers with metrics, tracing and logging.
//
// Handlers stay free of instrumentation. The wrappers are applied at wiring time:
//
//	coreHandler := borrowbook.NewCommandHandler(store, opener)
//
//	handler, err := observable.NewCommandWrapper[borrowbook.Command, borrowbook.Result](
//		coreHandler,
//		observable.WithCommandMetrics[borrowbook.Command, borrowbook.Result](metricsCollector),
//		observable.WithCommandTracing[borrowbook.Command, borrowbook.Result](tracingCollector),
//		observable.WithCommandContextualLogging[borrowbook.Command, borrowbook.Result](logger),
//	)
//
// The command wrapper turns the HandlerResult of the core handler into retry, idempotency
// and business error metrics. Every option is optional.
package observable
