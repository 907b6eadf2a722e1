package record

import (
	"time"

	"nestsync/pkg/domain"
)

// Decision is the server-side record of one consent decision, the store of
// record for compliance. The purpose text is snapshotted at decision time so
// the audit trail reflects exactly what the user was shown, even after the
// catalog copy changes.
type Decision struct {
	ID          string
	SubjectID   string
	ConsentType domain.ConsentType
	Granted     bool
	Version     string
	Purpose     string
	Feature     string
	Platform    string
	RecordedAt  time.Time
}
