package model

import "github.com/minerva-bot/minerva/pkg/domain/types"

// WorkspaceUser is a member of the Slack workspace
type WorkspaceUser struct {
	Name string
	ID   string
	Tier types.AccessTier
}

// IsSingleChannelGuest reports whether the member is an ultra restricted guest
func (u WorkspaceUser) IsSingleChannelGuest() bool {
	return u.Tier == types.AccessTierUltraRestricted
}

// GuestDirectory answers which workspace members are guests that must be
// reached by DM. The tier treated as "guest" comes from configuration so a
// development workspace can aim DMs at a different group.
type GuestDirectory struct {
	users     map[string]WorkspaceUser
	guestTier types.AccessTier
}

// NewGuestDirectory creates a directory over users. An empty guestTier means
// single-channel guests.
func NewGuestDirectory(users []WorkspaceUser, guestTier types.AccessTier) *GuestDirectory {
	if guestTier == "" {
		guestTier = types.AccessTierUltraRestricted
	}
	d := &GuestDirectory{
		users:     make(map[string]WorkspaceUser, len(users)),
		guestTier: guestTier,
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// GuestTier returns the tier members must have to be DMed
func (d *GuestDirectory) GuestTier() types.AccessTier {
	return d.guestTier
}

// User looks a member up by ID
func (d *GuestDirectory) User(id string) (WorkspaceUser, bool) {
	u, ok := d.users[id]
	return u, ok
}

// IsGuest reports whether the member with the given ID is a guest
func (d *GuestDirectory) IsGuest(id string) bool {
	u, ok := d.users[id]
	return ok && u.Tier == d.guestTier
}

// Guests returns the guests among memberIDs, deduplicated, in the given order.
// Unknown IDs are ignored.
func (d *GuestDirectory) Guests(memberIDs []string) []WorkspaceUser {
	seen := make(map[string]struct{}, len(memberIDs))
	var guests []WorkspaceUser
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if d.IsGuest(id) {
			guests = append(guests, d.users[id])
		}
	}
	return guests
}
