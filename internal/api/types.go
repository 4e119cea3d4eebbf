package api

// PanelTriggerRequest is the JSON body for POST /v1/panel-trigger.
type PanelTriggerRequest struct {
	Trigger string `json:"trigger"`
}

// SnapshotRequest is the JSON body for POST /v1/snapshot.
type SnapshotRequest struct {
	TipsSent int `json:"tips_sent"`
}

// SetPrefRequest is the JSON body for PUT /v1/prefs/{key}.
type SetPrefRequest struct {
	Value bool `json:"value"`
}

// StatusResp is the generic acknowledgement body.
type StatusResp struct {
	Status string `json:"status"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
