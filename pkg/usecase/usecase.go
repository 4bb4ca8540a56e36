package usecase

import (
	"time"

	"github.com/minerva-bot/minerva/pkg/domain/interfaces"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/domain/types"
)

const (
	// DefaultLookahead is how far ahead calendar events are fetched
	DefaultLookahead = 24 * time.Hour
	// DefaultPassTimeout bounds one evaluation pass so a stuck call cannot
	// run into the next one
	DefaultPassTimeout = 4 * time.Minute
	// DefaultConcurrency bounds concurrent sends within a pass
	DefaultConcurrency = 8
	// DefaultHelpURL is linked from /help
	DefaultHelpURL = "https://github.com/waterloo-rocketry/minerva-rewrite/blob/main/README.md"
)

type UseCases struct {
	slack     interfaces.Workspace
	calendar  interfaces.CalendarSource
	workspace *model.Workspace

	defaultChannels []string
	guestTier       types.AccessTier
	render          model.RenderOptions
	lookahead       time.Duration
	passTimeout     time.Duration
	concurrency     int
	helpURL         string
	logChannelID    string
	now             func() time.Time

	Dispatch *Dispatcher
	Reminder *ReminderUseCase
	Command  *CommandUseCase
}

type Option func(*UseCases)

// WithCalendar sets the calendar events are read from
func WithCalendar(src interfaces.CalendarSource) Option {
	return func(uc *UseCases) {
		uc.calendar = src
	}
}

// WithDefaultChannels sets the channel names the "default" group expands to
func WithDefaultChannels(names []string) Option {
	return func(uc *UseCases) {
		uc.defaultChannels = names
	}
}

// WithGuestTier sets which members are DMed as guests
func WithGuestTier(tier types.AccessTier) Option {
	return func(uc *UseCases) {
		uc.guestTier = tier
	}
}

// WithRenderOptions sets the timezone and fallback link used in reminders
func WithRenderOptions(opts model.RenderOptions) Option {
	return func(uc *UseCases) {
		uc.render = opts
	}
}

func WithLookahead(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.lookahead = d
	}
}

func WithPassTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.passTimeout = d
	}
}

func WithConcurrency(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

func WithHelpURL(url string) Option {
	return func(uc *UseCases) {
		uc.helpURL = url
	}
}

// WithLogChannel sets the channel error replies point the invoker to
func WithLogChannel(channelID string) Option {
	return func(uc *UseCases) {
		uc.logChannelID = channelID
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(slack interfaces.Workspace, workspace *model.Workspace, opts ...Option) *UseCases {
	uc := &UseCases{
		slack:       slack,
		workspace:   workspace,
		guestTier:   types.AccessTierUltraRestricted,
		lookahead:   DefaultLookahead,
		passTimeout: DefaultPassTimeout,
		concurrency: DefaultConcurrency,
		helpURL:     DefaultHelpURL,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Dispatch = NewDispatcher(slack, uc.concurrency)
	uc.Reminder = &ReminderUseCase{uc: uc}
	uc.Command = &CommandUseCase{uc: uc}

	return uc
}
