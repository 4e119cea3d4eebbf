package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/beaconlabs/convmon/internal/attribution"
	"github.com/beaconlabs/convmon/internal/prefs"
	"github.com/beaconlabs/convmon/internal/report"
)

// settablePrefs limits PUT /v1/prefs/{key} to the keys the monitor and
// reporters actually read.
var settablePrefs = map[string]bool{
	prefs.KeyRewardsEnabled:  true,
	prefs.KeyWalletCreated:   true,
	prefs.KeyAutoContribute:  true,
	prefs.KeyAdsEnabled:      true,
	prefs.KeySponsoredImages: true,
	prefs.KeyNotificationAds: true,
}

// handlePanelTrigger implements POST /v1/panel-trigger.
func (d *Dependencies) handlePanelTrigger(w http.ResponseWriter, r *http.Request) {
	var req PanelTriggerRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	trigger, ok := attribution.ParseTrigger(req.Trigger)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "unknown trigger: " + req.Trigger})
		return
	}

	d.Monitor.RecordPanelTrigger(r.Context(), trigger)
	writeJSON(w, http.StatusAccepted, StatusResp{Status: "recorded"})
}

// handleRewardsEnable implements POST /v1/rewards-enable. The enabled pref is
// flipped first so the monitor's immediate conversion check observes the new
// state.
func (d *Dependencies) handleRewardsEnable(w http.ResponseWriter, r *http.Request) {
	if err := d.Prefs.SetBool(r.Context(), prefs.KeyRewardsEnabled, true); err != nil {
		d.Logger.Error("failed to persist rewards enabled", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "failed to persist preference"})
		return
	}

	d.Monitor.RecordRewardsEnable(r.Context())
	writeJSON(w, http.StatusAccepted, StatusResp{Status: "recorded"})
}

// handleSnapshot implements POST /v1/snapshot.
func (d *Dependencies) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.TipsSent < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "tips_sent must be non-negative"})
		return
	}

	report.Snapshot(r.Context(), d.Prefs, d.Sink, d.Logger, req.TipsSent)
	writeJSON(w, http.StatusAccepted, StatusResp{Status: "recorded"})
}

// handleSetPref implements PUT /v1/prefs/{key}.
func (d *Dependencies) handleSetPref(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !settablePrefs[key] {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "unknown preference: " + key})
		return
	}

	var req SetPrefRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	if err := d.Prefs.SetBool(r.Context(), key, req.Value); err != nil {
		d.Logger.Error("failed to persist preference",
			zap.String("key", key),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "failed to persist preference"})
		return
	}

	writeJSON(w, http.StatusOK, StatusResp{Status: "ok"})
}

// handleListEmissions implements GET /api/convmon/emissions.
func (d *Dependencies) handleListEmissions(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "emission storage not configured"})
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	rows, err := d.Reader.RecentEmissions(r.Context(), r.URL.Query().Get("metric"), limit)
	if err != nil {
		d.Logger.Error("failed to list emissions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "query failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"emissions": rows})
}
