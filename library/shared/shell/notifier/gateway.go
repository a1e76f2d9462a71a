package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
)

const (
	dateLayout = "2006-01-02 15:04 MST"

	logMsgNotificationSent   = "notification sent"
	logMsgNotificationFailed = "notification failed"
	logMsgUnknownType        = "notification of unknown type dropped"

	logAttrNotificationType = "notification_type"
	logAttrError            = "error"
	logAttrDelivered        = "delivered"
)

// ErrUnknownNotification is logged when a notification has no message template.
var ErrUnknownNotification = errors.New("unknown notification type")

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Gateway renders notifications and sends them. It implements shell.Notifier.
type Gateway struct {
	sender           Sender
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for delivery results.
func WithLogger(logger shell.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithContextualLogger sets the context-aware logger used for delivery results.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(g *Gateway) {
		g.contextualLogger = logger
	}
}

// NewGateway creates a Gateway. A nil sender drops every notification after logging it.
func NewGateway(sender Sender, options ...Option) *Gateway {
	gateway := &Gateway{sender: sender}

	for _, option := range options {
		option(gateway)
	}

	return gateway
}

// Notify renders and sends one notification.
func (g *Gateway) Notify(ctx context.Context, notification core.Notification) {
	text, err := Render(notification)
	if err != nil {
		shell.LogWarn(ctx, g.logger, g.contextualLogger, logMsgUnknownType, logAttrError, err.Error())
		return
	}

	if g.sender == nil {
		shell.LogInfo(ctx, g.logger, g.contextualLogger, logMsgNotificationSent,
			logAttrNotificationType, notification.NotificationType(), logAttrDelivered, false)

		return
	}

	if err = g.sender.Send(ctx, text); err != nil {
		shell.LogError(ctx, g.logger, g.contextualLogger, logMsgNotificationFailed,
			logAttrNotificationType, notification.NotificationType(), logAttrError, err.Error())

		return
	}

	shell.LogInfo(ctx, g.logger, g.contextualLogger, logMsgNotificationSent,
		logAttrNotificationType, notification.NotificationType(), logAttrDelivered, true)
}

// Render formats a notification as a Telegram HTML message.
func Render(notification core.Notification) (string, error) {
	var b strings.Builder

	switch n := notification.(type) {
	case core.BorrowingCreated:
		b.WriteString("📚 <b>New borrowing created</b>\n")
		fmt.Fprintf(&b, "Borrowing ID: %d\n", n.BorrowingID)
		fmt.Fprintf(&b, "User ID: %d\n", n.UserID)
		fmt.Fprintf(&b, "Book: %s by %s\n", html.EscapeString(n.BookTitle), html.EscapeString(n.BookAuthor))
		fmt.Fprintf(&b, "Borrow date: %s\n", formatDate(n.BorrowDate))
		fmt.Fprintf(&b, "Expected return date: %s\n", formatDate(n.ExpectedReturnDate))
		fmt.Fprintf(&b, "To pay: %s", n.MoneyToPay.StringFixed(core.MoneyScale))

	case core.PaymentConfirmed:
		b.WriteString("💳 <b>Payment confirmed</b>\n")
		fmt.Fprintf(&b, "Payment ID: %d\n", n.PaymentID)
		fmt.Fprintf(&b, "Borrowing ID: %d\n", n.BorrowingID)
		fmt.Fprintf(&b, "Type: %s\n", html.EscapeString(n.PaymentType))
		fmt.Fprintf(&b, "Amount: %s", n.MoneyToPay.StringFixed(core.MoneyScale))

	case core.OverdueAlert:
		b.WriteString("⏰ <b>Overdue borrowing alert</b>\n")
		fmt.Fprintf(&b, "Book: %s\n", html.EscapeString(n.BookTitle))
		fmt.Fprintf(&b, "User ID: %d\n", n.UserID)
		fmt.Fprintf(&b, "Expected return date: %s\n", formatDate(n.ExpectedReturnDate))
		fmt.Fprintf(&b, "Days overdue: %d\n", n.DaysOverdue)
		fmt.Fprintf(&b, "Borrowing ID: %d", n.BorrowingID)

	case core.NoOverdue:
		b.WriteString("🚫 No borrowings overdue today!")

	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownNotification, notification)
	}

	return b.String(), nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

var _ shell.Notifier = (*Gateway)(nil)
