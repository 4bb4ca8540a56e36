package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/domain/types"
)

const workspaceURL = "https://example.slack.com"

var (
	chGeneral    = model.Channel{Name: "general", ID: "C0GENERAL"}
	chPropulsion = model.Channel{Name: "propulsion", ID: "C0PROP"}
	chRecovery   = model.Channel{Name: "recovery", ID: "C0RECOV"}
	chEng        = model.Channel{Name: "eng", ID: "C0ENG"}

	defaultNames = []string{"general", "propulsion"}

	guestAda   = model.WorkspaceUser{Name: "ada", ID: "U0ADA", Tier: types.AccessTierUltraRestricted}
	guestBo    = model.WorkspaceUser{Name: "bo", ID: "U0BO", Tier: types.AccessTierUltraRestricted}
	guestCy    = model.WorkspaceUser{Name: "cy", ID: "U0CY", Tier: types.AccessTierUltraRestricted}
	memberDee  = model.WorkspaceUser{Name: "dee", ID: "U0DEE", Tier: types.AccessTierFullMember}
	restricted = model.WorkspaceUser{Name: "eve", ID: "U0EVE", Tier: types.AccessTierRestricted}
)

type sentMessage struct {
	dest model.Destination
	text string
	ts   string
}

type addedReaction struct {
	channelID string
	ts        string
	emoji     string
}

type ephemeral struct {
	channelID string
	userID    string
	text      string
}

// mockWorkspace is an in-memory Slack workspace
type mockWorkspace struct {
	channels []model.Channel
	users    []model.WorkspaceUser
	members  map[string][]string

	listChannelsErr error
	listUsersErr    error
	permalinkErr    error
	postFn          func(dest model.Destination, text string) error
	ephemeralErr    error

	mu            sync.Mutex
	seq           int
	sent          []sentMessage
	reactions     []addedReaction
	ephemerals    []ephemeral
	listUsers     int
	listDeadline  bool
	replyDeadline bool
	memberCalls   map[string]int
	fetchedLinks  []string
}

func newMockWorkspace() *mockWorkspace {
	return &mockWorkspace{
		channels: []model.Channel{chGeneral, chPropulsion, chRecovery, chEng},
		users:    []model.WorkspaceUser{guestAda, guestBo, guestCy, memberDee, restricted},
		members: map[string][]string{
			chGeneral.ID:    {memberDee.ID, guestBo.ID},
			chPropulsion.ID: {memberDee.ID, guestAda.ID, restricted.ID},
			chRecovery.ID:   {guestBo.ID},
			chEng.ID:        {memberDee.ID, guestCy.ID},
		},
		memberCalls: make(map[string]int),
	}
}

func (m *mockWorkspace) ListChannels(ctx context.Context) ([]model.Channel, error) {
	m.mu.Lock()
	_, m.listDeadline = ctx.Deadline()
	m.mu.Unlock()
	if m.listChannelsErr != nil {
		return nil, m.listChannelsErr
	}
	return m.channels, nil
}

func (m *mockWorkspace) ListUsers(ctx context.Context) ([]model.WorkspaceUser, error) {
	m.mu.Lock()
	m.listUsers++
	m.mu.Unlock()
	if m.listUsersErr != nil {
		return nil, m.listUsersErr
	}
	return m.users, nil
}

func (m *mockWorkspace) ListChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	m.mu.Lock()
	m.memberCalls[channelID]++
	m.mu.Unlock()
	return m.members[channelID], nil
}

func (m *mockWorkspace) PostMessage(ctx context.Context, dest model.Destination, text string) (string, error) {
	if m.postFn != nil {
		if err := m.postFn(dest, text); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ts := fmt.Sprintf("1700000000.%06d", m.seq)
	m.sent = append(m.sent, sentMessage{dest: dest, text: text, ts: ts})
	return ts, nil
}

func (m *mockWorkspace) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	if m.ephemeralErr != nil {
		return m.ephemeralErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, m.replyDeadline = ctx.Deadline()
	m.ephemerals = append(m.ephemerals, ephemeral{channelID: channelID, userID: userID, text: text})
	return nil
}

func (m *mockWorkspace) AddReaction(ctx context.Context, channelID, ts, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, addedReaction{channelID: channelID, ts: ts, emoji: emoji})
	return nil
}

func (m *mockWorkspace) GetPermalink(ctx context.Context, channelID, ts string) (string, error) {
	if m.permalinkErr != nil {
		return "", m.permalinkErr
	}
	m.mu.Lock()
	m.fetchedLinks = append(m.fetchedLinks, channelID)
	m.mu.Unlock()
	return permalinkOf(channelID, ts), nil
}

func permalinkOf(channelID, ts string) string {
	return workspaceURL + "/archives/" + channelID + "/p" + strings.ReplaceAll(ts, ".", "")
}

// sentTo returns the messages delivered to a channel or user ID
func (m *mockWorkspace) sentTo(id string) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []sentMessage
	for _, s := range m.sent {
		if s.dest.ID() == id {
			result = append(result, s)
		}
	}
	return result
}

func (m *mockWorkspace) sentOfKind(kind model.DestinationKind) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []sentMessage
	for _, s := range m.sent {
		if s.dest.Kind() == kind {
			result = append(result, s)
		}
	}
	return result
}

// mockCalendar returns a fixed set of events
type mockCalendar struct {
	events []model.RawEvent
	err    error

	from, to time.Time
	calls    int
	deadline time.Time
}

func (m *mockCalendar) FetchEvents(ctx context.Context, from, to time.Time) ([]model.RawEvent, error) {
	m.calls++
	m.deadline, _ = ctx.Deadline()
	m.from, m.to = from, to
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func newWorkspace() *model.Workspace {
	ws, err := model.NewWorkspace(workspaceURL)
	if err != nil {
		panic(err)
	}
	return ws
}

func channelIDs(channels []model.Channel) []string {
	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		ids = append(ids, ch.ID)
	}
	return ids
}
