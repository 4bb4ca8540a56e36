package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/errutil"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
)

// Ephemeral replies
const (
	msgNoUpcomingEvents    = "No upcoming events in this channel."
	msgManualReminderSent  = "Manual reminder sent for next event in channel."
	msgManualReminderError = "Failed to send manual meeting reminder."
)

// CommandUseCase serves the operator slash commands. Every reply goes back
// to the invoker as an ephemeral message.
type CommandUseCase struct {
	uc *UseCases
}

// Handle runs cmd to completion. Failures are reported to the invoker and
// logged; the returned error is set only when even the reply failed.
func (x *CommandUseCase) Handle(ctx context.Context, cmd model.SlashCommand) error {
	logger := logging.From(ctx).With(
		"command", cmd.Command,
		"user_id", cmd.UserID,
		"channel_id", cmd.ChannelID,
	)
	ctx = logging.With(ctx, logger)
	logger.Info(cmd.UsageLine())

	reply := x.run(ctx, cmd)

	if err := x.uc.slack.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, reply); err != nil {
		return goerr.Wrap(err, "failed to reply to command",
			goerr.V(CommandKey, cmd.Command),
			goerr.V(ChannelIDKey, cmd.ChannelID),
		)
	}
	return nil
}

// run executes cmd within the pass timeout. The reply is posted outside it
// so a timed out command still reports back.
func (x *CommandUseCase) run(ctx context.Context, cmd model.SlashCommand) string {
	ctx, cancel := context.WithTimeout(ctx, x.uc.passTimeout)
	defer cancel()

	switch cmd.Command {
	case model.CommandNotify:
		return x.notify(ctx, cmd)
	case model.CommandHelp:
		return x.help()
	case model.CommandMeetingReminder:
		return x.meetingReminder(ctx, cmd)
	default:
		_ = errutil.Handle(ctx, goerr.Wrap(ErrUnknownCommand, "cannot handle command",
			goerr.V(CommandKey, cmd.Command)), "unknown slash command")
		return fmt.Sprintf("Unknown command `%s`.\n%s", cmd.Command, x.help())
	}
}

func (x *CommandUseCase) notify(ctx context.Context, cmd model.SlashCommand) string {
	uc := x.uc

	params, err := model.ParseNotifyCommand(cmd.Text, uc.workspace)
	if err != nil {
		logging.From(ctx).Info("rejected notify command", "error", err)
		return model.UserMessage(err)
	}

	originID, err := uc.workspace.ChannelIDFromPermalink(params.MessageURL)
	if err != nil {
		return model.UserMessage(err)
	}

	dir, err := uc.LoadDirectory(ctx)
	if err != nil {
		_ = errutil.Handle(ctx, err, "failed to load directory for notify")
		return x.notifyFailed()
	}

	report, err := uc.Dispatch.Notify(ctx, dir, NotifyRequest{
		Message:         model.RenderNotifyMessage(params),
		Channels:        params.Channels,
		IncludeDefaults: params.IncludeDefaultChannels,
		OriginChannelID: originID,
		DMGuests:        true,
	})
	if err != nil {
		_ = errutil.Handle(ctx, err, "failed to notify guests")
		return x.notifyFailed()
	}
	if len(report.Delivered) == 0 {
		if len(report.Failed) == 0 {
			return "No channels to notify."
		}
		return x.notifyFailed()
	}

	names := make([]string, 0, len(report.Delivered))
	for _, ch := range report.Delivered {
		names = append(names, "`"+ch.Name+"`")
	}
	summary := fmt.Sprintf("Notified %d single-channel guests in channel(s) %s about message `%s`",
		report.GuestsReached, strings.Join(names, ", "), params.MessageURL)
	if len(report.Failed) > 0 {
		failed := make([]string, 0, len(report.Failed))
		for _, ch := range report.Failed {
			failed = append(failed, "`"+ch.Name+"`")
		}
		summary += fmt.Sprintf("\nFailed to post in channel(s) %s", strings.Join(failed, ", "))
	}

	logging.From(ctx).Info(summary)
	return summary
}

func (x *CommandUseCase) notifyFailed() string {
	if x.uc.logChannelID != "" {
		return fmt.Sprintf("An error occurred while notifying. Check <#%s> for more details.", x.uc.logChannelID)
	}
	return "An error occurred while notifying. Check the logs for more details."
}

func (x *CommandUseCase) help() string {
	return fmt.Sprintf("For more information, check out <%s|minerva's README>.\nUsage:\n`%s`\n`%s`",
		x.uc.helpURL, model.NotifyUsage, model.MeetingReminderUsage)
}

func (x *CommandUseCase) meetingReminder(ctx context.Context, cmd model.SlashCommand) string {
	ping := strings.EqualFold(strings.TrimSpace(cmd.Text), "ping")

	ev, err := x.uc.Reminder.RemindNext(ctx, cmd.ChannelID, ping)
	if err != nil {
		_ = errutil.Handle(ctx, err, "failed to send manual meeting reminder")
		if ev == nil {
			return msgManualReminderError
		}
	}
	if ev == nil {
		return msgNoUpcomingEvents
	}
	return msgManualReminderSent
}
