package model

// DestinationKind tells which variant a Destination holds
type DestinationKind int

const (
	DestinationChannel DestinationKind = iota + 1
	DestinationUser
)

func (k DestinationKind) String() string {
	switch k {
	case DestinationChannel:
		return "channel"
	case DestinationUser:
		return "user"
	default:
		return "unknown"
	}
}

// Destination is where a message is posted: either a channel or a user's DM.
type Destination struct {
	kind    DestinationKind
	channel Channel
	user    WorkspaceUser
}

// ChannelDestination wraps a channel
func ChannelDestination(ch Channel) Destination {
	return Destination{kind: DestinationChannel, channel: ch}
}

// UserDestination wraps a user; messages go to their DM
func UserDestination(u WorkspaceUser) Destination {
	return Destination{kind: DestinationUser, user: u}
}

func (d Destination) Kind() DestinationKind {
	return d.kind
}

// ID returns the channel or user ID. Slack accepts either as the target of
// chat.postMessage.
func (d Destination) ID() string {
	switch d.kind {
	case DestinationChannel:
		return d.channel.ID
	case DestinationUser:
		return d.user.ID
	default:
		return ""
	}
}

func (d Destination) Name() string {
	switch d.kind {
	case DestinationChannel:
		return d.channel.Name
	case DestinationUser:
		return d.user.Name
	default:
		return ""
	}
}

// Channel returns the channel if d holds one
func (d Destination) Channel() (Channel, bool) {
	return d.channel, d.kind == DestinationChannel
}

// User returns the user if d holds one
func (d Destination) User() (WorkspaceUser, bool) {
	return d.user, d.kind == DestinationUser
}

// ChannelSet is a set of channels keyed by ID that iterates in insertion order.
type ChannelSet struct {
	order []string
	items map[string]Channel
}

// NewChannelSet creates a set containing channels
func NewChannelSet(channels ...Channel) *ChannelSet {
	s := &ChannelSet{items: make(map[string]Channel)}
	s.Add(channels...)
	return s
}

// Add inserts channels not already present. Later duplicates of an ID are ignored.
func (s *ChannelSet) Add(channels ...Channel) {
	for _, ch := range channels {
		if _, exists := s.items[ch.ID]; exists {
			continue
		}
		s.items[ch.ID] = ch
		s.order = append(s.order, ch.ID)
	}
}

// Remove deletes the channel with the given ID
func (s *ChannelSet) Remove(id string) {
	if _, exists := s.items[id]; !exists {
		return
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *ChannelSet) Has(id string) bool {
	_, ok := s.items[id]
	return ok
}

func (s *ChannelSet) Len() int {
	return len(s.order)
}

// List returns the channels in insertion order
func (s *ChannelSet) List() []Channel {
	result := make([]Channel, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.items[id])
	}
	return result
}

// IDs returns the channel IDs in insertion order
func (s *ChannelSet) IDs() []string {
	return append([]string(nil), s.order...)
}
