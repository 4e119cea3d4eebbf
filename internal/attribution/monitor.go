// Package attribution implements the conversion monitor: it attributes a
// rewards enable action to the most recent qualifying panel trigger within a
// bounded causality window, and reports bucketed usage metrics on a
// recurring schedule. Two variants exist; the desktop variant tracks the
// identity of the last trigger, the mobile variant only counts occurrences.
package attribution

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/beaconlabs/convmon/internal/clock"
	"github.com/beaconlabs/convmon/internal/metrics"
	"github.com/beaconlabs/convmon/internal/prefs"
)

// AttributionWindow bounds how long after a panel trigger an enable action
// may still be attributed to it.
const AttributionWindow = time.Minute

// ReportInterval is the cadence of the mobile variant's periodic
// weekly-count flush.
const ReportInterval = 24 * time.Hour

// panelCountThresholds buckets the rolling weekly panel-trigger count before
// it is reported.
var panelCountThresholds = []uint64{5, 10, 50}

// Monitor is the conversion monitor surface called by UI-layer code.
type Monitor interface {
	// RecordPanelTrigger notes that the rewards panel was opened from the
	// given surface. Never blocks.
	RecordPanelTrigger(ctx context.Context, trigger PanelTrigger)

	// RecordRewardsEnable notes that rewards were just enabled and emits
	// the attribution outcome.
	RecordRewardsEnable(ctx context.Context)

	// Close cancels all pending timers. No emission scheduled by this
	// monitor fires after Close returns.
	Close()
}

// Variant selects which monitor implementation New constructs.
type Variant string

const (
	VariantDesktop Variant = "desktop"
	VariantMobile  Variant = "mobile"
)

// ParseVariant maps a config string onto a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantDesktop, VariantMobile:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("unknown platform variant %q", s)
	}
}

// Deps holds the collaborators shared by both variants.
type Deps struct {
	Sink   metrics.Sink
	Prefs  prefs.Store
	Clock  clock.Clock
	Logger *zap.Logger
}

// New constructs the monitor for the given variant. The mobile variant
// performs its initial periodic flush before returning.
func New(variant Variant, deps Deps) Monitor {
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	switch variant {
	case VariantMobile:
		return newMobileMonitor(deps)
	default:
		return newDesktopMonitor(deps)
	}
}
