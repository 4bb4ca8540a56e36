package usecase

// MsgNoUpcomingEvents is exported for testing
const MsgNoUpcomingEvents = msgNoUpcomingEvents

// MsgManualReminderSent is exported for testing
const MsgManualReminderSent = msgManualReminderSent
