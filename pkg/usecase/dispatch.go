package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/interfaces"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/errutil"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// NotifyRequest describes one fan-out
type NotifyRequest struct {
	Message         string
	Channels        []model.Channel
	IncludeDefaults bool
	// OriginChannelID is left out of the default channels, and its members
	// are never DMed as guests
	OriginChannelID string
	// DMGuests messages the single-channel guests of the delivered channels
	DMGuests bool
	// GuestMessage renders the DM for a guest from a permalink.
	// model.RenderGuestMessage is used when nil.
	GuestMessage func(permalink string) string
	Reactions    []string
}

// DeliveryReport is the outcome of a fan-out
type DeliveryReport struct {
	Delivered     []model.Channel
	Failed        []model.Channel
	GuestsReached int
	GuestsFailed  int
}

type Dispatcher struct {
	slack       interfaces.Workspace
	concurrency int
}

func NewDispatcher(slack interfaces.Workspace, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{slack: slack, concurrency: concurrency}
}

// Destinations returns the channels a request posts to: the explicit ones
// first, then the defaults other than the origin channel.
func (d *Dispatcher) Destinations(ctx context.Context, dir *Directory, req NotifyRequest) *model.ChannelSet {
	set := model.NewChannelSet(req.Channels...)
	if req.IncludeDefaults {
		for _, ch := range dir.Channels.DefaultChannels(ctx) {
			if ch.ID == req.OriginChannelID {
				continue
			}
			set.Add(ch)
		}
	}
	return set
}

type postResult struct {
	channel model.Channel
	ts      string
	err     error
}

// Notify posts the message to every destination and then DMs guests. A
// failed destination is logged and reported, it never stops the others.
// The returned error is set only when the guest directory cannot be read or
// no permalink is available for the DMs; the report is valid either way.
func (d *Dispatcher) Notify(ctx context.Context, dir *Directory, req NotifyRequest) (*DeliveryReport, error) {
	targets := d.Destinations(ctx, dir, req).List()
	results := make([]postResult, len(targets))

	var eg errgroup.Group
	eg.SetLimit(d.concurrency)
	for i, ch := range targets {
		eg.Go(func() error {
			results[i] = d.post(ctx, ch, req.Message, req.Reactions)
			return nil
		})
	}
	_ = eg.Wait()

	report := &DeliveryReport{}
	var delivered []postResult
	for _, r := range results {
		if r.err != nil {
			report.Failed = append(report.Failed, r.channel)
			continue
		}
		report.Delivered = append(report.Delivered, r.channel)
		delivered = append(delivered, r)
	}

	logging.From(ctx).Info("message fanned out",
		"delivered", len(report.Delivered),
		"failed", len(report.Failed),
	)

	if !req.DMGuests || len(delivered) == 0 {
		return report, nil
	}

	reached, failed, err := d.messageGuests(ctx, dir, req, delivered)
	report.GuestsReached = reached
	report.GuestsFailed = failed
	return report, err
}

func (d *Dispatcher) post(ctx context.Context, ch model.Channel, text string, reactions []string) postResult {
	ts, err := d.slack.PostMessage(ctx, model.ChannelDestination(ch), text)
	if err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to post message",
			goerr.V(ChannelIDKey, ch.ID),
			goerr.V(model.ChannelNameKey, ch.Name),
		), "failed to deliver to channel")
		return postResult{channel: ch, err: err}
	}

	for _, emoji := range reactions {
		if err := d.slack.AddReaction(ctx, ch.ID, ts, emoji); err != nil {
			logging.From(ctx).Warn("failed to add reaction",
				"channel_id", ch.ID,
				"emoji", emoji,
				"error", err,
			)
		}
	}

	return postResult{channel: ch, ts: ts}
}

type guestTarget struct {
	user      model.WorkspaceUser
	channelID string
}

func (d *Dispatcher) messageGuests(ctx context.Context, dir *Directory, req NotifyRequest, delivered []postResult) (int, int, error) {
	guests, err := dir.Guests(ctx)
	if err != nil {
		return 0, 0, err
	}

	scope := make([]model.Channel, 0, len(delivered))
	for _, r := range delivered {
		scope = append(scope, r.channel)
	}

	targets := d.collectGuests(ctx, dir, guests, scope, req.OriginChannelID)
	if len(targets) == 0 {
		return 0, 0, nil
	}

	links := d.permalinks(ctx, delivered)
	fallback := ""
	for _, r := range delivered {
		if link, ok := links[r.channel.ID]; ok {
			fallback = link
			break
		}
	}
	if fallback == "" {
		return 0, len(targets), goerr.Wrap(ErrNoPermalink, "no delivered post has a permalink")
	}

	render := req.GuestMessage
	if render == nil {
		render = model.RenderGuestMessage
	}

	var reached, failed atomic.Int64
	var eg errgroup.Group
	eg.SetLimit(d.concurrency)
	for _, target := range targets {
		eg.Go(func() error {
			link, ok := links[target.channelID]
			if !ok {
				link = fallback
			}
			if _, err := d.slack.PostMessage(ctx, model.UserDestination(target.user), render(link)); err != nil {
				_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to message guest",
					goerr.V("user_id", target.user.ID),
				), "failed to deliver to guest")
				failed.Add(1)
				return nil
			}
			reached.Add(1)
			return nil
		})
	}
	_ = eg.Wait()

	return int(reached.Load()), int(failed.Load()), nil
}

// collectGuests walks the scope channels and returns each guest once, tagged
// with the first scope channel they were found in.
func (d *Dispatcher) collectGuests(ctx context.Context, dir *Directory, guests *model.GuestDirectory, scope []model.Channel, originID string) []guestTarget {
	excluded := make(map[string]struct{})
	if originID != "" {
		members, err := dir.Members(ctx, originID)
		if err != nil {
			logging.From(ctx).Warn("failed to read origin channel members", "channel_id", originID, "error", err)
		}
		for _, id := range members {
			excluded[id] = struct{}{}
		}
	}

	var targets []guestTarget
	for _, ch := range scope {
		if ch.ID == originID {
			continue
		}
		members, err := dir.Members(ctx, ch.ID)
		if err != nil {
			_ = errutil.Handle(ctx, err, "failed to read channel members")
			continue
		}
		for _, user := range guests.Guests(members) {
			if _, skip := excluded[user.ID]; skip {
				continue
			}
			excluded[user.ID] = struct{}{}
			targets = append(targets, guestTarget{user: user, channelID: ch.ID})
		}
	}
	return targets
}

// permalinks resolves the permalink of each delivered post, keyed by channel
func (d *Dispatcher) permalinks(ctx context.Context, delivered []postResult) map[string]string {
	var mu sync.Mutex
	links := make(map[string]string, len(delivered))

	var eg errgroup.Group
	eg.SetLimit(d.concurrency)
	for _, r := range delivered {
		eg.Go(func() error {
			link, err := d.slack.GetPermalink(ctx, r.channel.ID, r.ts)
			if err != nil {
				logging.From(ctx).Warn("failed to get permalink", "channel_id", r.channel.ID, "error", err)
				return nil
			}
			mu.Lock()
			links[r.channel.ID] = link
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return links
}
