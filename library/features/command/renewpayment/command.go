package renewpayment

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
)

const (
	commandType = "RenewPayment"
)

// Command represents the intent to replace the checkout session of a payment.
type Command struct {
	SessionID string
	RenewedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(sessionID string, now time.Time) Command {
	return Command{
		SessionID: sessionID,
		RenewedAt: core.ToStoredTime(now),
	}
}
