package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/domain/types"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// ReminderUseCase sends event reminders on the schedule and on request
type ReminderUseCase struct {
	uc *UseCases
}

// PassReport summarizes one evaluation pass
type PassReport struct {
	ID        string
	Events    int
	Reminders int
}

// CheckEvents runs one evaluation pass: it reads the channels and upcoming
// events once, then sends every reminder that is due at this moment. Reading
// either source failing aborts the pass; a failed send does not.
func (x *ReminderUseCase) CheckEvents(ctx context.Context) (*PassReport, error) {
	uc := x.uc
	if uc.calendar == nil {
		return nil, goerr.Wrap(ErrNoCalendar, "cannot check events")
	}

	report := &PassReport{ID: uuid.NewString()}
	logger := logging.From(ctx).With("pass_id", report.ID)
	ctx = logging.With(ctx, logger)

	ctx, cancel := context.WithTimeout(ctx, uc.passTimeout)
	defer cancel()

	now := uc.now()
	dir, events, err := x.loadEvents(ctx, now)
	if err != nil {
		return nil, goerr.Wrap(err, "evaluation pass aborted", goerr.V(PassIDKey, report.ID))
	}
	report.Events = len(events)

	var sent atomic.Int64
	var eg errgroup.Group
	eg.SetLimit(uc.concurrency)
	for _, ev := range events {
		kind, due := model.ReminderKindFor(ev, now)
		if !due {
			continue
		}
		eg.Go(func() error {
			if _, err := x.send(ctx, dir, ev, kind, now); err != nil {
				logger.Warn("reminder sent with errors", "title", ev.Title, "error", err)
			}
			sent.Add(1)
			return nil
		})
	}
	_ = eg.Wait()
	report.Reminders = int(sent.Load())

	logger.Info("evaluation pass finished",
		"events", report.Events,
		"reminders", report.Reminders,
	)

	return report, nil
}

// RemindNext sends a manual reminder for the soonest tracked event routed to
// channelID. It returns nil without sending when there is none.
func (x *ReminderUseCase) RemindNext(ctx context.Context, channelID string, ping bool) (*model.CalendarEvent, error) {
	uc := x.uc
	if uc.calendar == nil {
		return nil, goerr.Wrap(ErrNoCalendar, "cannot send manual reminder")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.passTimeout)
	defer cancel()

	now := uc.now()
	dir, events, err := x.loadEvents(ctx, now)
	if err != nil {
		return nil, err
	}

	matched := model.FilterEventsForChannel(events, channelID)
	if len(matched) == 0 {
		return nil, nil
	}

	kind := types.ReminderManual
	if ping {
		kind = types.ReminderManualPing
	}

	next := matched[0]
	if _, err := x.send(ctx, dir, next, kind, now); err != nil {
		return next, err
	}
	return next, nil
}

func (x *ReminderUseCase) loadEvents(ctx context.Context, now time.Time) (*Directory, []*model.CalendarEvent, error) {
	uc := x.uc

	dir, err := uc.LoadDirectory(ctx)
	if err != nil {
		return nil, nil, err
	}

	raws, err := uc.calendar.FetchEvents(ctx, now, now.Add(uc.lookahead))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to fetch calendar events")
	}

	return dir, model.ParseEvents(ctx, raws, dir.Channels), nil
}

func (x *ReminderUseCase) send(ctx context.Context, dir *Directory, ev *model.CalendarEvent, kind types.ReminderKind, now time.Time) (*DeliveryReport, error) {
	uc := x.uc
	meta := ev.Metadata

	logger := logging.From(ctx)
	logger.Info("sending reminder",
		"title", ev.Title,
		"start", ev.Start,
		"kind", kind,
		"channel", meta.Channel.Name,
	)

	report, err := uc.Dispatch.Notify(ctx, dir, NotifyRequest{
		Message:         model.RenderChannelMessage(ev, kind, now, uc.render),
		Channels:        meta.Channels(),
		OriginChannelID: meta.Channel.ID,
		DMGuests:        meta.DMSingleChannelGuests,
		Reactions:       model.ReminderReactions(kind),
	})
	if report != nil {
		logger.Info("reminder delivered",
			"title", ev.Title,
			"delivered", len(report.Delivered),
			"failed", len(report.Failed),
			"guests_reached", report.GuestsReached,
			"guests_failed", report.GuestsFailed,
		)
	}
	if err != nil {
		return report, goerr.Wrap(err, "failed to message guests", goerr.V("title", ev.Title))
	}
	return report, nil
}
