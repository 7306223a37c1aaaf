package domain

import "time"

// CounterType identifies which daily counter an action increments.
type CounterType string

const (
	// CounterConnections counts connection invitations sent today.
	CounterConnections CounterType = "connections_sent"

	// CounterMessages counts follow-up messages sent today.
	CounterMessages CounterType = "messages_sent"
)

// Valid reports whether the counter type is one of the known columns.
// Counter types are interpolated into SQL column positions, so unknown
// values must be rejected before they reach a query.
func (c CounterType) Valid() bool {
	return c == CounterConnections || c == CounterMessages
}

// DailyCounter tracks how many connections and messages were sent on a
// given calendar day. One row per date; counters never decrease.
type DailyCounter struct {
	Date            time.Time `db:"date" json:"date"`
	ConnectionsSent int       `db:"connections_sent" json:"connections_sent"`
	MessagesSent    int       `db:"messages_sent" json:"messages_sent"`
}
