package models

// -----------------------------------------------------------------------------
// Diagnostic snapshot of the live feed
// -----------------------------------------------------------------------------

type MStatus struct {
	ActiveSubscribers int             `json:"activeSubscribers"`
	ActivePollers     int             `json:"activePollers"`
	Keys              []string        `json:"keys"`
	IsSessionOpen     bool            `json:"isSessionOpen"`
	Pollers           []MPollerStatus `json:"pollers"`
}

type MPollerStatus struct {
	Key                 string `json:"key"`
	Subscribers         int    `json:"subscribers"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	LastTickAt          int64  `json:"lastTickAt"`
	IsLive              bool   `json:"isLive"`
}
