package handler

// recordDecisionRequest is the wire shape the gate's HTTPRecorder posts.
type recordDecisionRequest struct {
	ConsentType string `json:"consent_type"`
	Granted     bool   `json:"granted"`
	Version     string `json:"version"`
	Feature     string `json:"feature,omitempty"`
}
