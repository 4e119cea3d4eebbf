// Package prefs provides durable key-value preference storage and the
// daily-bucketed rolling trigger counter used by the constrained monitor
// variant. Counts are bucketed per UTC day so no exact event timestamps are
// ever persisted.
package prefs

import (
	"context"
	"time"
)

// Preference keys understood by the monitor and the snapshot reporters.
// Missing keys read as false.
const (
	KeyRewardsEnabled  = "rewards.enabled"
	KeyWalletCreated   = "rewards.wallet_created"
	KeyAutoContribute  = "rewards.auto_contribute"
	KeyAdsEnabled      = "ads.enabled"
	KeySponsoredImages = "ads.sponsored_images"
	KeyNotificationAds = "ads.notification_ads"
)

// windowDays is the trailing window of the rolling trigger sum: the current
// UTC day plus the six before it.
const windowDays = 7

// Store is durable preference storage. Implementations serialize their own
// reads and writes; callers never need external locking.
type Store interface {
	// GetBool reads a boolean preference. A missing key is false, not an
	// error.
	GetBool(ctx context.Context, key string) (bool, error)

	// SetBool writes a boolean preference.
	SetBool(ctx context.Context, key string, value bool) error

	// AddTriggerDelta adds delta to the trigger counter bucket for the UTC
	// day containing at, and prunes buckets that have left the rolling
	// window.
	AddTriggerDelta(ctx context.Context, delta uint64, at time.Time) error

	// TriggerWeeklySum returns the rolling sum of trigger counts over the
	// trailing window ending at now.
	TriggerWeeklySum(ctx context.Context, now time.Time) (uint64, error)

	Close() error
}

// dayStart returns the unix timestamp of UTC midnight for t's day.
func dayStart(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// windowCutoff returns the earliest day bucket still inside the rolling
// window ending at now.
func windowCutoff(now time.Time) int64 {
	return dayStart(now.UTC().AddDate(0, 0, -(windowDays - 1)))
}
