package chargeoverduefines

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
)

const (
	commandType = "ChargeOverdueFines"
)

// Command triggers one fine run at ChargedAt.
type Command struct {
	ChargedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(now time.Time) Command {
	return Command{ChargedAt: core.ToStoredTime(now)}
}

// Result summarizes one run.
type Result struct {
	Checked          int
	Charged          int
	ProviderFailures int
}
