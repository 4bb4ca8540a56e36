package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// AccessTier is the privilege classification of a workspace member
type AccessTier string

const (
	AccessTierOwner           AccessTier = "OWNER"
	AccessTierAdmin           AccessTier = "ADMIN"
	AccessTierBot             AccessTier = "BOT"
	AccessTierRestricted      AccessTier = "RESTRICTED"
	AccessTierUltraRestricted AccessTier = "ULTRA_RESTRICTED"
	AccessTierFullMember      AccessTier = "FULL_MEMBER"
)

// AllAccessTiers returns all access tiers, most privileged first
func AllAccessTiers() []AccessTier {
	return []AccessTier{
		AccessTierOwner,
		AccessTierBot,
		AccessTierAdmin,
		AccessTierUltraRestricted,
		AccessTierRestricted,
		AccessTierFullMember,
	}
}

// AccessFlags are the boolean role flags the workspace reports for a member
type AccessFlags struct {
	IsOwner           bool
	IsAdmin           bool
	IsBot             bool
	IsRestricted      bool
	IsUltraRestricted bool
}

// ClassifyAccessTier derives the tier from role flags.
// Ultra restricted members are also flagged restricted, so it is checked first.
func ClassifyAccessTier(f AccessFlags) AccessTier {
	switch {
	case f.IsOwner:
		return AccessTierOwner
	case f.IsBot:
		return AccessTierBot
	case f.IsAdmin:
		return AccessTierAdmin
	case f.IsUltraRestricted:
		return AccessTierUltraRestricted
	case f.IsRestricted:
		return AccessTierRestricted
	default:
		return AccessTierFullMember
	}
}

// IsValid checks if the tier is one of the known tiers
func (t AccessTier) IsValid() bool {
	switch t {
	case AccessTierOwner,
		AccessTierAdmin,
		AccessTierBot,
		AccessTierRestricted,
		AccessTierUltraRestricted,
		AccessTierFullMember:
		return true
	default:
		return false
	}
}

func (t AccessTier) String() string {
	return string(t)
}

// ParseAccessTier parses a tier name case-insensitively, e.g. "ultra_restricted"
func ParseAccessTier(s string) (AccessTier, error) {
	tier := AccessTier(strings.ToUpper(strings.TrimSpace(s)))
	if !tier.IsValid() {
		return "", goerr.New("invalid access tier", goerr.V("tier", s))
	}
	return tier, nil
}
