// Package report contains the one-shot snapshot reporters: pure reads of
// current preference values emitted once per call, with no retained state.
package report

import (
	"context"

	"go.uber.org/zap"

	"github.com/beaconlabs/convmon/internal/metrics"
	"github.com/beaconlabs/convmon/internal/prefs"
)

// AdTypes enumerates which ad surfaces are enabled. Closed domain; the
// ordering is transmitted.
type AdTypes int

const (
	AdTypesNone AdTypes = iota
	AdTypesNewTabPage
	AdTypesNotification
	AdTypesAll

	adTypesDomainSize = int(AdTypesAll) + 1
)

// tipsThresholds buckets tip counts so that 0 reports bucket 0, 1-2 report
// bucket 1, and 3+ report bucket 2.
var tipsThresholds = []uint64{1, 3}

// TipsSent reports the number of tips sent as a bucket index. Negative
// counts are a caller contract breach: logged and ignored.
func TipsSent(sink metrics.Sink, logger *zap.Logger, count int) {
	if count < 0 {
		logger.Error("negative tip count ignored", zap.Int("count", count))
		return
	}
	bucket := metrics.Bucket(uint64(count), tipsThresholds)
	sink.EmitLinear(metrics.MetricTipsSent, bucket, len(tipsThresholds)+1)
}

// AutoContributionsState reports whether automatic contributions are enabled.
func AutoContributionsState(sink metrics.Sink, enabled bool) {
	v := 0
	if enabled {
		v = 1
	}
	sink.EmitLinear(metrics.MetricAutoContributionsState, v, 2)
}

// NoWalletCreated suppresses the wallet-dependent metrics simultaneously, so
// downstream aggregation does not mistake absence-of-data for zero.
func NoWalletCreated(sink metrics.Sink) {
	sink.EmitLinear(metrics.MetricTipsSent, metrics.SuppressedValue, 3)
	sink.EmitLinear(metrics.MetricAutoContributionsState, metrics.SuppressedValue, 2)
}

// AdTypesEnabled reports which ad surfaces are currently enabled, or the
// suppression sentinel when ads are off entirely.
func AdTypesEnabled(ctx context.Context, store prefs.Store, sink metrics.Sink, logger *zap.Logger) {
	adsEnabled, err := store.GetBool(ctx, prefs.KeyAdsEnabled)
	if err != nil {
		logger.Warn("failed to read ads enabled pref", zap.Error(err))
	}
	if !adsEnabled {
		sink.EmitLinear(metrics.MetricAdTypesEnabled, metrics.SuppressedValue, adTypesDomainSize)
		return
	}

	ntp, err := store.GetBool(ctx, prefs.KeySponsoredImages)
	if err != nil {
		logger.Warn("failed to read sponsored images pref", zap.Error(err))
	}
	notification, err := store.GetBool(ctx, prefs.KeyNotificationAds)
	if err != nil {
		logger.Warn("failed to read notification ads pref", zap.Error(err))
	}

	answer := AdTypesNone
	switch {
	case ntp && notification:
		answer = AdTypesAll
	case ntp:
		answer = AdTypesNewTabPage
	case notification:
		answer = AdTypesNotification
	}
	sink.EmitEnum(metrics.MetricAdTypesEnabled, int(answer), adTypesDomainSize)
}

// Snapshot runs every one-shot reporter against the current preference
// state. tipsSent is the caller-supplied count of tips sent.
func Snapshot(ctx context.Context, store prefs.Store, sink metrics.Sink, logger *zap.Logger, tipsSent int) {
	walletCreated, err := store.GetBool(ctx, prefs.KeyWalletCreated)
	if err != nil {
		logger.Warn("failed to read wallet created pref", zap.Error(err))
	}

	if !walletCreated {
		NoWalletCreated(sink)
	} else {
		TipsSent(sink, logger, tipsSent)
		ac, err := store.GetBool(ctx, prefs.KeyAutoContribute)
		if err != nil {
			logger.Warn("failed to read auto contribute pref", zap.Error(err))
		}
		AutoContributionsState(sink, ac)
	}

	AdTypesEnabled(ctx, store, sink, logger)
}
