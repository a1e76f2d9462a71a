package shell

import (
	"context"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
)

// Command is implemented by every command of the feature slices.
// CommandType names the command in logs, metrics and spans.
type Command interface {
	CommandType() string
}

// CoreCommandHandler processes one command type and returns its typed output.
// HandlerResult carries the retry metadata and whether the command was a no-op.
type CoreCommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, command C) (R, HandlerResult, error)
}

// Notifier hands a notification to the staff channel after the triggering transaction committed.
// Delivery failures are the notifier's concern; Notify never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, notification core.Notification)
}

// Query is implemented by every query of the read slices.
type Query interface {
	QueryType() string
}

// CoreQueryHandler answers one query type.
type CoreQueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
