package types

// ReminderKind identifies which reminder is being sent for an event
type ReminderKind string

const (
	// ReminderSixHours is the timer driven reminder six hours before start
	ReminderSixHours ReminderKind = "SIX_HOURS"
	// ReminderFiveMinutes is the timer driven reminder five minutes before start
	ReminderFiveMinutes ReminderKind = "FIVE_MINUTES"
	// ReminderManual is sent by an operator without a broadcast ping
	ReminderManual ReminderKind = "MANUAL"
	// ReminderManualPing is sent by an operator with a broadcast ping
	ReminderManualPing ReminderKind = "MANUAL_PING"
)

func (k ReminderKind) String() string {
	return string(k)
}

// IsManual reports whether the kind was triggered by an operator
func (k ReminderKind) IsManual() bool {
	return k == ReminderManual || k == ReminderManualPing
}

// Pings reports whether the kind carries a channel broadcast
func (k ReminderKind) Pings() bool {
	return k == ReminderFiveMinutes || k == ReminderManualPing
}

// ShowsRelativeTime reports whether the headline says "in N minutes"
// rather than giving the absolute start time.
func (k ReminderKind) ShowsRelativeTime() bool {
	return k == ReminderFiveMinutes || k == ReminderManual
}
