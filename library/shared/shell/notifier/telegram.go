package notifier

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	pkgerrors "github.com/pkg/errors"
)

const (
	// DefaultTelegramBaseURL is the Telegram Bot API endpoint.
	DefaultTelegramBaseURL = "https://api.telegram.org"

	endpointFormat = "/bot%s/%s"
	defaultTimeout = 5 * time.Second
)

var (
	// ErrEmptyBotToken is returned when a TelegramSender is created without a bot token.
	ErrEmptyBotToken = errors.New("telegram bot token must not be empty")

	// ErrEmptyChatID is returned when a TelegramSender is created without a chat id.
	ErrEmptyChatID = errors.New("telegram chat id must not be empty")

	// ErrTelegramRejected is returned when the Bot API did not accept a message.
	ErrTelegramRejected = errors.New("telegram rejected message")
)

// TelegramSender posts messages to one chat through the Telegram Bot API.
// The chat id is either a numeric id or an @channel username.
type TelegramSender struct {
	bot        *tgbotapi.BotAPI
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// TelegramOption configures a TelegramSender.
type TelegramOption func(*TelegramSender)

// WithTelegramBaseURL points the sender to another API endpoint, e.g. a test server.
func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(s *TelegramSender) {
		if baseURL != "" {
			s.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTelegramHTTPClient replaces the default HTTP client with its 5 second timeout.
// The Bot API client sends requests without a context, so the client timeout bounds every call.
func WithTelegramHTTPClient(httpClient *http.Client) TelegramOption {
	return func(s *TelegramSender) {
		if httpClient != nil {
			s.httpClient = httpClient
		}
	}
}

// NewTelegramSender creates a TelegramSender for the bot token and chat id.
// It does not call getMe, so an unreachable Bot API never blocks startup.
func NewTelegramSender(token, chatID string, options ...TelegramOption) (*TelegramSender, error) {
	if token == "" {
		return nil, ErrEmptyBotToken
	}

	if chatID == "" {
		return nil, ErrEmptyChatID
	}

	sender := &TelegramSender{
		chatID:     chatID,
		baseURL:    DefaultTelegramBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, option := range options {
		option(sender)
	}

	sender.bot = &tgbotapi.BotAPI{Token: token, Client: sender.httpClient}
	sender.bot.SetAPIEndpoint(sender.baseURL + endpointFormat)

	return sender, nil
}

// Send posts text with HTML parse mode.
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.Wrap(err, "send telegram message")
	}

	msg := tgbotapi.NewMessageToChannel(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := s.bot.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return pkgerrors.Wrapf(ErrTelegramRejected, "code %d: %s", apiErr.Code, apiErr.Message)
		}

		// the error text of net/http contains the URL and with it the bot token
		return pkgerrors.Wrap(redactToken(err, s.bot.Token), "send telegram message")
	}

	return nil
}

type redactedError struct {
	msg   string
	cause error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.cause }

func redactToken(err error, token string) error {
	return redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), cause: err}
}

var _ Sender = (*TelegramSender)(nil)
