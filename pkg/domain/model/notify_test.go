package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/minerva-bot/minerva/pkg/domain/model"
)

func TestParseNotifyCommand(t *testing.T) {
	ws, err := model.NewWorkspace("https://workspace.slack.com")
	gt.NoError(t, err).Required()

	tests := []struct {
		name    string
		text    string
		want    *model.NotifyParameters
		wantErr error
	}{
		{
			name: "ping, default and explicit channel",
			text: "<https://workspace.slack.com/archives/C1/p1> ping default <#C2|eng>",
			want: &model.NotifyParameters{
				MessageURL:             "https://workspace.slack.com/archives/C1/p1",
				PingChannels:           true,
				IncludeDefaultChannels: true,
				Channels:               []model.Channel{chEng},
			},
		},
		{
			name: "url only notifies defaults",
			text: "https://workspace.slack.com/archives/C1/p1",
			want: &model.NotifyParameters{
				MessageURL:             "https://workspace.slack.com/archives/C1/p1",
				IncludeDefaultChannels: true,
			},
		},
		{
			name: "ping only notifies defaults",
			text: "  <https://workspace.slack.com/archives/C1/p1>   ping ",
			want: &model.NotifyParameters{
				MessageURL:             "https://workspace.slack.com/archives/C1/p1",
				PingChannels:           true,
				IncludeDefaultChannels: true,
			},
		},
		{
			name: "explicit channels without defaults are deduplicated",
			text: "<https://workspace.slack.com/archives/C1/p1> <#C2|eng> <#C0RECOV|recovery> <#C2|eng>",
			want: &model.NotifyParameters{
				MessageURL: "https://workspace.slack.com/archives/C1/p1",
				Channels:   []model.Channel{chEng, chRecovery},
			},
		},
		{
			name: "default after channels",
			text: "<https://workspace.slack.com/archives/C1/p1|link> <#C2|eng> default",
			want: &model.NotifyParameters{
				MessageURL:             "https://workspace.slack.com/archives/C1/p1",
				IncludeDefaultChannels: true,
				Channels:               []model.Channel{chEng},
			},
		},
		{name: "empty", text: "   ", wantErr: model.ErrEmptyNotifyCommand},
		{name: "foreign url", text: "<https://other.slack.com/archives/C1/p1>", wantErr: model.ErrNotWorkspacePermalink},
		{name: "not a url", text: "hello world", wantErr: model.ErrNotWorkspacePermalink},
		{name: "ping out of place", text: "<https://workspace.slack.com/archives/C1/p1> default ping", wantErr: model.ErrInvalidEscapedChannel},
		{name: "bare channel name", text: "<https://workspace.slack.com/archives/C1/p1> #eng", wantErr: model.ErrInvalidEscapedChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ParseNotifyCommand(tt.text, ws)
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, *got).Equal(*tt.want)
		})
	}
}

func TestParseNotifyCommand_UserMessages(t *testing.T) {
	ws, err := model.NewWorkspace("https://workspace.slack.com")
	gt.NoError(t, err).Required()

	_, err = model.ParseNotifyCommand("", ws)
	gt.S(t, model.UserMessage(err)).Contains(model.NotifyUsage)

	_, err = model.ParseNotifyCommand("https://other.example/x", ws)
	gt.S(t, model.UserMessage(err)).Equal("Please provide a valid message URL from this Slack workspace as the first argument.")

	_, err = model.ParseNotifyCommand("https://workspace.slack.com/archives/C1/p1 #eng", ws)
	gt.S(t, model.UserMessage(err)).Contains("could not parse escaped channel text: #eng")
}

func TestRenderNotifyMessage(t *testing.T) {
	p := &model.NotifyParameters{MessageURL: "https://workspace.slack.com/archives/C1/p1"}
	gt.S(t, model.RenderNotifyMessage(p)).Equal("https://workspace.slack.com/archives/C1/p1")

	p.PingChannels = true
	gt.S(t, model.RenderNotifyMessage(p)).Equal("<!channel>\nhttps://workspace.slack.com/archives/C1/p1")
}
