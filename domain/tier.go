// Package domain contains core concepts of the chat system.
// This file defines subscription tiers and the quota limits attached to them.
// Limits are static configuration: they are read-only at runtime, the tier
// itself belongs to the user account record.
package domain

import "time"

type Tier string

const (
	TierBasic Tier = "basic"
	TierVIP   Tier = "vip"
)

// TierLimits bounds what a sender is allowed to put in a single message.
type TierLimits struct {
	MaxTextLen  int // runes, not bytes
	MaxPhotos   int
	MaxVideos   int
	MaxAudioSec int
}

var tierLimits = map[Tier]TierLimits{
	TierBasic: {MaxTextLen: 500, MaxPhotos: 1, MaxVideos: 1, MaxAudioSec: 30},
	TierVIP:   {MaxTextLen: 1000, MaxPhotos: 5, MaxVideos: 2, MaxAudioSec: 120},
}

// ParseTier maps a raw tier value from an account record to a known Tier.
// Anything unknown or empty degrades to basic: a missing tier must never
// silently grant the unlimited experience.
func ParseTier(raw string) Tier {
	switch Tier(raw) {
	case TierBasic, TierVIP:
		return Tier(raw)
	default:
		return TierBasic
	}
}

// LimitsFor returns the quota limits of a tier.
// Unknown tiers get the most restrictive entry, same defensive default as ParseTier.
func LimitsFor(t Tier) TierLimits {
	limits, ok := tierLimits[t]
	if !ok {
		return tierLimits[TierBasic]
	}
	return limits
}

// MaxAudioDuration is the clamp fed to the recording session timer.
func (l TierLimits) MaxAudioDuration() time.Duration {
	return time.Duration(l.MaxAudioSec) * time.Second
}
