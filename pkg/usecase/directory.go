package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/interfaces"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/domain/types"
	"golang.org/x/sync/singleflight"
)

// Directory is a snapshot of the workspace taken once per evaluation pass or
// command. The channel list is read eagerly; users and channel members are
// read on first use and then reused for the rest of the pass.
type Directory struct {
	Channels *model.ChannelDirectory

	slack     interfaces.Workspace
	guestTier types.AccessTier

	guestsOnce sync.Once
	guests     *model.GuestDirectory
	guestsErr  error

	memberGroup singleflight.Group
	mu          sync.Mutex
	members     map[string][]string
}

// NewDirectory creates a directory over an already loaded channel snapshot
func NewDirectory(slack interfaces.Workspace, channels *model.ChannelDirectory, guestTier types.AccessTier) *Directory {
	return &Directory{
		Channels:  channels,
		slack:     slack,
		guestTier: guestTier,
		members:   make(map[string][]string),
	}
}

// LoadDirectory lists the workspace channels and returns a fresh snapshot
func (uc *UseCases) LoadDirectory(ctx context.Context) (*Directory, error) {
	channels, err := uc.slack.ListChannels(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list channels")
	}
	return NewDirectory(uc.slack, model.NewChannelDirectory(channels, uc.defaultChannels), uc.guestTier), nil
}

// Guests returns the guest directory, listing users on first call
func (d *Directory) Guests(ctx context.Context) (*model.GuestDirectory, error) {
	d.guestsOnce.Do(func() {
		users, err := d.slack.ListUsers(ctx)
		if err != nil {
			d.guestsErr = goerr.Wrap(err, "failed to list users")
			return
		}
		d.guests = model.NewGuestDirectory(users, d.guestTier)
	})
	return d.guests, d.guestsErr
}

// Members returns the member IDs of a channel
func (d *Directory) Members(ctx context.Context, channelID string) ([]string, error) {
	d.mu.Lock()
	cached, ok := d.members[channelID]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := d.memberGroup.Do(channelID, func() (any, error) {
		members, err := d.slack.ListChannelMembers(ctx, channelID)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.members[channelID] = members
		d.mu.Unlock()
		return members, nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list channel members", goerr.V(ChannelIDKey, channelID))
	}
	return v.([]string), nil
}
