package model

import "fmt"

// Slash commands served by the bot
const (
	CommandNotify          = "/notify"
	CommandHelp            = "/help"
	CommandMeetingReminder = "/meeting_reminder"
)

// MeetingReminderUsage is the syntax of the /meeting_reminder command
const MeetingReminderUsage = "/meeting_reminder [ping]"

// SlashCommand is a slash command invocation as received from Slack
type SlashCommand struct {
	Command     string
	Text        string
	ChannelID   string
	ChannelName string
	UserID      string
	UserName    string
}

// UsageLine is the log line recorded for every invocation
func (c SlashCommand) UsageLine() string {
	return fmt.Sprintf("`%s` used the `%s` command in `%s`", c.UserName, c.Command, c.ChannelName)
}
