// Package notifier delivers library notifications to the staff channel.
//
// Gateway renders a core.Notification as an HTML message and hands it to a Sender.
// TelegramSender posts messages through the Telegram Bot API. Delivery failures are
// logged and never reach the caller.
package notifier
