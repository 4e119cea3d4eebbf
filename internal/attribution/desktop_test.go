package attribution

import (
	"context"
	"testing"
	"time"

	"github.com/beaconlabs/convmon/internal/clock"
	"github.com/beaconlabs/convmon/internal/metrics"
)

func newDesktopHarness(t *testing.T) (*desktopMonitor, *captureSink, *clock.Fake) {
	t.Helper()
	sink := &captureSink{}
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	m := New(VariantDesktop, Deps{Sink: sink, Clock: clk}).(*desktopMonitor)
	t.Cleanup(m.Close)
	return m, sink, clk
}

func TestDesktop_AttributesWithinWindow(t *testing.T) {
	ctx := context.Background()

	for _, trig := range []PanelTrigger{TriggerInlineTip, TriggerToolbarButton, TriggerNewTabPage} {
		m, sink, clk := newDesktopHarness(t)

		m.RecordPanelTrigger(ctx, trig)
		clk.Advance(30 * time.Second)
		m.RecordRewardsEnable(ctx)

		got := sink.byMetric(metrics.MetricEnabledSource)
		if len(got) != 1 {
			t.Fatalf("%v: %d attribution emissions, want 1", trig, len(got))
		}
		if got[0].Value != int(trig) {
			t.Errorf("%v: attributed enum value %d, want %d", trig, got[0].Value, int(trig))
		}
	}
}

func TestDesktop_AttributesAtExactWindowBoundary(t *testing.T) {
	ctx := context.Background()
	m, sink, clk := newDesktopHarness(t)

	m.RecordPanelTrigger(ctx, TriggerToolbarButton)
	clk.Advance(AttributionWindow) // delta == window still qualifies
	m.RecordRewardsEnable(ctx)

	if got := sink.byMetric(metrics.MetricEnabledSource); len(got) != 1 {
		t.Fatalf("attribution at exact boundary: %d emissions, want 1", len(got))
	}
}

func TestDesktop_ExpiredTriggerNotAttributed(t *testing.T) {
	ctx := context.Background()
	m, sink, clk := newDesktopHarness(t)

	m.RecordPanelTrigger(ctx, TriggerToolbarButton)
	clk.Advance(AttributionWindow + time.Second)
	m.RecordRewardsEnable(ctx)

	if got := sink.byMetric(metrics.MetricEnabledSource); len(got) != 0 {
		t.Fatalf("expired trigger attributed: %d emissions, want 0", len(got))
	}
}

func TestDesktop_EnableWithoutTrigger(t *testing.T) {
	ctx := context.Background()
	m, sink, _ := newDesktopHarness(t)

	m.RecordRewardsEnable(ctx)

	if got := sink.byMetric(metrics.MetricEnabledSource); len(got) != 0 {
		t.Fatalf("enable without trigger attributed: %d emissions, want 0", len(got))
	}
	// The suppression emission still happens.
	toolbar := sink.byMetric(metrics.MetricToolbarButtonTrigger)
	if len(toolbar) != 1 || toolbar[0].Value != metrics.SuppressedValue {
		t.Fatalf("expected exactly one suppression emission, got %v", toolbar)
	}
}

func TestDesktop_OnlyMostRecentTriggerAttributed(t *testing.T) {
	ctx := context.Background()
	m, sink, clk := newDesktopHarness(t)

	m.RecordPanelTrigger(ctx, TriggerInlineTip)
	clk.Advance(10 * time.Second)
	m.RecordPanelTrigger(ctx, TriggerNewTabPage)
	clk.Advance(10 * time.Second)
	m.RecordRewardsEnable(ctx)

	got := sink.byMetric(metrics.MetricEnabledSource)
	if len(got) != 1 {
		t.Fatalf("%d attribution emissions, want 1", len(got))
	}
	if got[0].Value != int(TriggerNewTabPage) {
		t.Errorf("attributed to %d, want %d (most recent)", got[0].Value, int(TriggerNewTabPage))
	}
}

func TestDesktop_StaleTriggerRefreshedByNewOne(t *testing.T) {
	ctx := context.Background()
	m, sink, clk := newDesktopHarness(t)

	m.RecordPanelTrigger(ctx, TriggerInlineTip)
	clk.Advance(10 * time.Minute) // first trigger goes stale
	m.RecordPanelTrigger(ctx, TriggerToolbarButton)
	clk.Advance(5 * time.Second)
	m.RecordRewardsEnable(ctx)

	got := sink.byMetric(metrics.MetricEnabledSource)
	if len(got) != 1 || got[0].Value != int(TriggerToolbarButton) {
		t.Fatalf("expected attribution to fresh trigger, got %v", got)
	}
}

func TestDesktop_AttributionClearsState(t *testing.T) {
	ctx := context.Background()
	m, sink, clk := newDesktopHarness(t)

	m.RecordPanelTrigger(ctx, TriggerToolbarButton)
	clk.Advance(time.Second)
	m.RecordRewardsEnable(ctx)
	m.RecordRewardsEnable(ctx) // immediately after a successful attribution

	if got := sink.byMetric(metrics.MetricEnabledSource); len(got) != 1 {
		t.Fatalf("%d attribution emissions after double enable, want 1", len(got))
	}
}

func TestDesktop_ToolbarTriggerCounter(t *testing.T) {
	ctx := context.Background()
	m, sink, _ := newDesktopHarness(t)

	m.RecordPanelTrigger(ctx, TriggerInlineTip)
	if got := sink.byMetric(metrics.MetricToolbarButtonTrigger); len(got) != 0 {
		t.Fatalf("inline tip emitted toolbar counter: %v", got)
	}

	m.RecordPanelTrigger(ctx, TriggerToolbarButton)
	got := sink.byMetric(metrics.MetricToolbarButtonTrigger)
	if len(got) != 1 || got[0].Value != 1 {
		t.Fatalf("expected one toolbar counter emission of 1, got %v", got)
	}
}

func TestDesktop_SuppressionPrecedesAttribution(t *testing.T) {
	ctx := context.Background()
	m, sink, _ := newDesktopHarness(t)

	m.RecordPanelTrigger(ctx, TriggerToolbarButton)
	m.RecordRewardsEnable(ctx)

	// Expected order: toolbar occurrence, toolbar suppression, then the
	// attribution. The suppression must come before the attribution even
	// though attribution succeeds.
	sink.mu.Lock()
	all := append([]capturedEmission(nil), sink.emissions...)
	sink.mu.Unlock()

	if len(all) != 3 {
		t.Fatalf("expected 3 emissions, got %v", all)
	}
	if all[1].Metric != metrics.MetricToolbarButtonTrigger || all[1].Value != metrics.SuppressedValue {
		t.Errorf("second emission should be the suppression, got %+v", all[1])
	}
	if all[2].Metric != metrics.MetricEnabledSource {
		t.Errorf("third emission should be the attribution, got %+v", all[2])
	}
}
