package confirmpayment

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
)

const (
	commandType = "ConfirmPayment"
)

// Command represents a callback claiming that the checkout session was paid.
type Command struct {
	SessionID   string
	ConfirmedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(sessionID string, now time.Time) Command {
	return Command{
		SessionID:   sessionID,
		ConfirmedAt: core.ToStoredTime(now),
	}
}
