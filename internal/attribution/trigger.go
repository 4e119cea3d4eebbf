package attribution

// PanelTrigger enumerates the UI surfaces that can precede a rewards enable
// action. The ordering is transmitted as the enum index of the
// Rewards.EnabledSource metric and must not change.
type PanelTrigger int

const (
	TriggerInlineTip PanelTrigger = iota
	TriggerToolbarButton
	TriggerNewTabPage

	// triggerDomainSize is the closed enum domain reported to the sink.
	triggerDomainSize = int(TriggerNewTabPage) + 1
)

// String returns the wire-stable name used by the HTTP ingress.
func (t PanelTrigger) String() string {
	switch t {
	case TriggerInlineTip:
		return "inline_tip"
	case TriggerToolbarButton:
		return "toolbar_button"
	case TriggerNewTabPage:
		return "new_tab_page"
	default:
		return "unknown"
	}
}

// ParseTrigger maps a wire name onto a PanelTrigger.
func ParseTrigger(s string) (PanelTrigger, bool) {
	switch s {
	case "inline_tip":
		return TriggerInlineTip, true
	case "toolbar_button":
		return TriggerToolbarButton, true
	case "new_tab_page":
		return TriggerNewTabPage, true
	default:
		return 0, false
	}
}
