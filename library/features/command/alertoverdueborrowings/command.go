package alertoverdueborrowings

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
)

const (
	commandType = "AlertOverdueBorrowings"
)

// Command triggers one alert run at CheckedAt.
type Command struct {
	CheckedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(now time.Time) Command {
	return Command{CheckedAt: core.ToStoredTime(now)}
}

// Result holds the notifications sent by one run.
type Result struct {
	Notifications []core.Notification
}
