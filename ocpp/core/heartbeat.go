package core

import (
	"time"

	"evstation/types"
)

const HeartbeatFeatureName = "Heartbeat"

type HeartbeatRequest struct{}

func (HeartbeatRequest) GetFeatureName() string {
	return HeartbeatFeatureName
}

type HeartbeatResponse struct {
	CurrentTime types.DateTime `json:"currentTime"`
}

func (HeartbeatResponse) GetFeatureName() string {
	return HeartbeatFeatureName
}

// Drift is how far the local clock is ahead of the CSMS clock.
func (r *HeartbeatResponse) Drift(local time.Time) time.Duration {
	if r.CurrentTime.IsZero() {
		return 0
	}
	return local.Sub(r.CurrentTime.Time)
}
