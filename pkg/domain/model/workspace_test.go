package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/minerva-bot/minerva/pkg/domain/model"
)

func TestNewWorkspace(t *testing.T) {
	ws, err := model.NewWorkspace("https://workspace.slack.com/")
	gt.NoError(t, err).Required()
	gt.S(t, ws.URL()).Equal("https://workspace.slack.com")

	for _, raw := range []string{"", "workspace.slack.com", "ftp://workspace.slack.com", "https://"} {
		_, err := model.NewWorkspace(raw)
		gt.Error(t, err).Is(model.ErrInvalidWorkspaceURL)
	}
}

func TestWorkspace_ChannelIDFromPermalink(t *testing.T) {
	ws, err := model.NewWorkspace("https://workspace.slack.com")
	gt.NoError(t, err).Required()

	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{name: "message permalink", link: "https://workspace.slack.com/archives/C1/p1", want: "C1"},
		{name: "thread permalink", link: "https://workspace.slack.com/archives/C0ABC/p1700000000000100?thread_ts=1700000000.000100", want: "C0ABC"},
		{name: "channel only", link: "https://workspace.slack.com/archives/C0ABC", want: "C0ABC"},
		{name: "other workspace", link: "https://other.slack.com/archives/C1/p1", wantErr: true},
		{name: "not archives", link: "https://workspace.slack.com/team/U1", wantErr: true},
		{name: "no channel segment", link: "https://workspace.slack.com/archives/", wantErr: true},
		{name: "lookalike host", link: "https://workspace.slack.com.evil.example/archives/C1/p1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ws.ChannelIDFromPermalink(tt.link)
			if tt.wantErr {
				gt.Error(t, err).Is(model.ErrNotWorkspacePermalink)
				gt.Bool(t, ws.IsPermalink(tt.link)).False()
				return
			}
			gt.NoError(t, err).Required()
			gt.S(t, got).Equal(tt.want)
			gt.Bool(t, ws.IsPermalink(tt.link)).True()
		})
	}
}
