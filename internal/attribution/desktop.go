package attribution

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/beaconlabs/convmon/internal/clock"
	"github.com/beaconlabs/convmon/internal/metrics"
)

// desktopMonitor holds at most one pending trigger and attributes an enable
// action to it if the enable arrives within the causality window.
type desktopMonitor struct {
	sink   metrics.Sink
	clk    clock.Clock
	logger *zap.Logger

	mu              sync.Mutex
	lastTrigger     *PanelTrigger
	lastTriggerTime time.Time
}

func newDesktopMonitor(deps Deps) *desktopMonitor {
	return &desktopMonitor{
		sink:   deps.Sink,
		clk:    deps.Clock,
		logger: deps.Logger,
	}
}

func (m *desktopMonitor) RecordPanelTrigger(_ context.Context, trigger PanelTrigger) {
	if trigger == TriggerToolbarButton {
		// Standalone occurrence counter, independent of the attribution
		// outcome.
		m.sink.EmitLinear(metrics.MetricToolbarButtonTrigger, 1, 2)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Single slot: the latest trigger overwrites any still-pending one.
	t := trigger
	m.lastTrigger = &t
	m.lastTriggerTime = m.clk.Now()
}

func (m *desktopMonitor) RecordRewardsEnable(_ context.Context) {
	// Suppress the toolbar-trigger metric before the window check, so a
	// later unrelated toolbar click is not double-counted against this
	// enable. This happens whether or not attribution succeeds.
	m.sink.EmitLinear(metrics.MetricToolbarButtonTrigger, metrics.SuppressedValue, 2)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastTrigger == nil || m.clk.Now().Sub(m.lastTriggerTime) > AttributionWindow {
		// An expired trigger is treated as absent.
		m.clearLocked()
		return
	}

	m.sink.EmitEnum(metrics.MetricEnabledSource, int(*m.lastTrigger), triggerDomainSize)
	m.logger.Debug("rewards enable attributed",
		zap.String("trigger", m.lastTrigger.String()),
	)

	// A trigger is consumed by at most one enable action.
	m.clearLocked()
}

func (m *desktopMonitor) clearLocked() {
	m.lastTrigger = nil
	m.lastTriggerTime = time.Time{}
}

func (m *desktopMonitor) Close() {}
