package attribution

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/beaconlabs/convmon/internal/clock"
	"github.com/beaconlabs/convmon/internal/metrics"
	"github.com/beaconlabs/convmon/internal/prefs"
)

// mobileMonitor is the constrained variant. It never tracks which surface
// triggered the panel; it counts occurrences into a durable rolling weekly
// counter and reports a boolean "conversion occurred" outcome after the
// attribution window.
type mobileMonitor struct {
	sink   metrics.Sink
	store  prefs.Store
	clk    clock.Clock
	logger *zap.Logger

	mu          sync.Mutex
	closed      bool
	convTimer   clock.Timer
	convGen     uint64 // invalidates in-flight deferred checks on cancel
	reportTimer clock.Timer
}

func newMobileMonitor(deps Deps) *mobileMonitor {
	m := &mobileMonitor{
		sink:   deps.Sink,
		store:  deps.Prefs,
		clk:    deps.Clock,
		logger: deps.Logger,
	}

	// Initial flush, then self-perpetuating daily reports.
	m.mu.Lock()
	m.flushWeeklyCountLocked(context.Background())
	m.reportTimer = m.clk.AfterFunc(ReportInterval, m.onReportTimer)
	m.mu.Unlock()

	return m
}

func (m *mobileMonitor) RecordPanelTrigger(ctx context.Context, _ PanelTrigger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	if m.enabledLocked(ctx) {
		now := m.clk.Now()
		if err := m.store.AddTriggerDelta(ctx, 1, now); err != nil {
			m.logger.Warn("failed to record panel trigger count", zap.Error(err))
			return
		}
		m.flushWeeklyCountLocked(ctx)
		return
	}

	// Rewards not enabled yet: schedule a deferred conversion check. A new
	// trigger replaces any pending check; only the latest trigger's timer
	// is honored.
	if m.convTimer != nil {
		m.convTimer.Stop()
	}
	m.convGen++
	gen := m.convGen
	m.convTimer = m.clk.AfterFunc(AttributionWindow, func() {
		m.onConversionTimer(gen)
	})
}

func (m *mobileMonitor) RecordRewardsEnable(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	// Cancel the deferred check and perform it now. Bumping the generation
	// guarantees an already-dispatched callback can never emit afterward.
	if m.convTimer != nil {
		m.convTimer.Stop()
		m.convTimer = nil
	}
	m.convGen++

	m.emitConversionLocked(ctx)
}

// onConversionTimer is the deferred "did a conversion happen" check.
func (m *mobileMonitor) onConversionTimer(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.convGen {
		return
	}
	m.convTimer = nil
	m.emitConversionLocked(context.Background())
}

func (m *mobileMonitor) emitConversionLocked(ctx context.Context) {
	m.sink.EmitBoolean(metrics.MetricMobileConversion, m.enabledLocked(ctx))
}

func (m *mobileMonitor) onReportTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.flushWeeklyCountLocked(context.Background())
	m.reportTimer = m.clk.AfterFunc(ReportInterval, m.onReportTimer)
}

// flushWeeklyCountLocked reports the rolling weekly trigger count as a
// bucket index. A zero sum emits nothing, so an idle install does not send a
// noisy all-zero default signal.
func (m *mobileMonitor) flushWeeklyCountLocked(ctx context.Context) {
	sum, err := m.store.TriggerWeeklySum(ctx, m.clk.Now())
	if err != nil {
		m.logger.Warn("failed to read weekly trigger sum", zap.Error(err))
		return
	}
	if sum == 0 {
		return
	}
	bucket := metrics.Bucket(sum, panelCountThresholds)
	m.sink.EmitLinear(metrics.MetricMobilePanelCount, bucket, len(panelCountThresholds)+1)
}

func (m *mobileMonitor) enabledLocked(ctx context.Context) bool {
	enabled, err := m.store.GetBool(ctx, prefs.KeyRewardsEnabled)
	if err != nil {
		m.logger.Warn("failed to read rewards enabled pref", zap.Error(err))
		return false
	}
	return enabled
}

// Close cancels both timers. The generation bump prevents any
// already-dispatched deferred check from emitting after Close returns.
func (m *mobileMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.convGen++
	if m.convTimer != nil {
		m.convTimer.Stop()
		m.convTimer = nil
	}
	if m.reportTimer != nil {
		m.reportTimer.Stop()
		m.reportTimer = nil
	}
}
