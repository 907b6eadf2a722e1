package consent

import (
	"time"

	"nestsync/pkg/domain"
	"nestsync/pkg/platform/sentinel"
)

// ConsentRecord captures a user's cached decision for one consent type.
// At most one record exists per type; a new decision overwrites the old.
type ConsentRecord struct {
	Type      domain.ConsentType `json:"consent_type"`
	Granted   bool               `json:"granted"`
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
}

// Validate reports why the record is no longer authoritative:
// sentinel.ErrVersionMismatch when it was decided under a superseded schema
// version, sentinel.ErrExpired when it is older than the TTL, nil otherwise.
func (r ConsentRecord) Validate(now time.Time, ttl time.Duration, version string) error {
	if r.Version != version {
		return sentinel.ErrVersionMismatch
	}
	if now.Sub(r.Timestamp) >= ttl {
		return sentinel.ErrExpired
	}
	return nil
}

// Valid is the boolean form of Validate. An invalid record is treated as
// absent, never as granted.
func (r ConsentRecord) Valid(now time.Time, ttl time.Duration, version string) bool {
	return r.Validate(now, ttl, version) == nil
}

// Prompt is the content handed to the presentation surface for one request.
type Prompt struct {
	Type           domain.ConsentType
	Purpose        string
	DataCategories []string
	Feature        string
}
