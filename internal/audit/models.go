package audit

import "time"

// Actions recorded against the consent audit trail.
const (
	ActionConsentGranted  = "consent_granted"
	ActionConsentDeclined = "consent_declined"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID          string
	Timestamp   time.Time
	SubjectID   string
	Action      string
	ConsentType string
	Version     string
	Feature     string
	Platform    string
	RequestID   string
}
