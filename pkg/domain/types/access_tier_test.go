package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/minerva-bot/minerva/pkg/domain/types"
)

func TestClassifyAccessTier(t *testing.T) {
	tests := []struct {
		name  string
		flags types.AccessFlags
		want  types.AccessTier
	}{
		{
			name:  "no flags",
			flags: types.AccessFlags{},
			want:  types.AccessTierFullMember,
		},
		{
			name:  "owner wins over everything",
			flags: types.AccessFlags{IsOwner: true, IsAdmin: true, IsBot: true},
			want:  types.AccessTierOwner,
		},
		{
			name:  "bot wins over admin",
			flags: types.AccessFlags{IsBot: true, IsAdmin: true},
			want:  types.AccessTierBot,
		},
		{
			name:  "admin",
			flags: types.AccessFlags{IsAdmin: true},
			want:  types.AccessTierAdmin,
		},
		{
			name:  "ultra restricted is also restricted",
			flags: types.AccessFlags{IsRestricted: true, IsUltraRestricted: true},
			want:  types.AccessTierUltraRestricted,
		},
		{
			name:  "restricted",
			flags: types.AccessFlags{IsRestricted: true},
			want:  types.AccessTierRestricted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, types.ClassifyAccessTier(tt.flags)).Equal(tt.want)
		})
	}
}

func TestParseAccessTier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.AccessTier
		wantErr bool
	}{
		{name: "upper case", input: "ULTRA_RESTRICTED", want: types.AccessTierUltraRestricted},
		{name: "lower case", input: "admin", want: types.AccessTierAdmin},
		{name: "padded", input: " full_member ", want: types.AccessTierFullMember},
		{name: "unknown", input: "guest", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseAccessTier(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestAllAccessTiers(t *testing.T) {
	tiers := types.AllAccessTiers()
	gt.Array(t, tiers).Length(6)
	for _, tier := range tiers {
		gt.B(t, tier.IsValid()).True()
	}
}

func TestReminderKind(t *testing.T) {
	tests := []struct {
		kind     types.ReminderKind
		manual   bool
		pings    bool
		relative bool
	}{
		{kind: types.ReminderSixHours, manual: false, pings: false, relative: false},
		{kind: types.ReminderFiveMinutes, manual: false, pings: true, relative: true},
		{kind: types.ReminderManual, manual: true, pings: false, relative: true},
		{kind: types.ReminderManualPing, manual: true, pings: true, relative: false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			gt.Value(t, tt.kind.IsManual()).Equal(tt.manual)
			gt.Value(t, tt.kind.Pings()).Equal(tt.pings)
			gt.Value(t, tt.kind.ShowsRelativeTime()).Equal(tt.relative)
		})
	}
}
