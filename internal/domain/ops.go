package domain

// HeartbeatStatus is the sanitized operational status of one named component.
// Last write wins; there is exactly one record per component.
type HeartbeatStatus struct {
	LastRunAt    int64          `json:"lastRunAt,omitempty"`
	LastOkAt     int64          `json:"lastOkAt,omitempty"`
	LastErrorAt  int64          `json:"lastErrorAt,omitempty"`
	LastErrorMsg string         `json:"lastErrorMsg,omitempty"`
	Metrics      map[string]int `json:"metrics,omitempty"`
}

// Event is one entry of the ring-buffered operational log.
type Event struct {
	TS        int64             `json:"ts"`
	Component string            `json:"component"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
}
