// Package api exposes the conversion monitor over HTTP to UI-layer callers.
package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/beaconlabs/convmon/internal/attribution"
	"github.com/beaconlabs/convmon/internal/auth"
	"github.com/beaconlabs/convmon/internal/metrics"
	"github.com/beaconlabs/convmon/internal/prefs"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Monitor attribution.Monitor
	Prefs   prefs.Store
	Sink    metrics.Sink
	Reader  *metrics.Reader // nil if ClickHouse unavailable
	Auth    auth.Authenticator
	Logger  *zap.Logger
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Ingest endpoints (auth required via Bearer cmk_ key)
	mux.HandleFunc("POST /v1/panel-trigger", deps.authMiddleware(deps.handlePanelTrigger))
	mux.HandleFunc("POST /v1/rewards-enable", deps.authMiddleware(deps.handleRewardsEnable))
	mux.HandleFunc("POST /v1/snapshot", deps.authMiddleware(deps.handleSnapshot))
	mux.HandleFunc("PUT /v1/prefs/{key}", deps.authMiddleware(deps.handleSetPref))

	// Ops endpoints (no auth — operator dashboard only)
	mux.HandleFunc("GET /api/convmon/emissions", deps.handleListEmissions)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
