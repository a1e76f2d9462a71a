package sweepexpiredpayments

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
)

const (
	commandType = "SweepExpiredPayments"
)

// Command triggers one sweep at SweptAt.
type Command struct {
	SweptAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(now time.Time) Command {
	return Command{SweptAt: core.ToStoredTime(now)}
}

// Result summarizes one sweep.
type Result struct {
	Checked          int
	Expired          int
	ProviderFailures int
}
