package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and persistence layers
// return these (optionally wrapped) so the broker and services can translate
// them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: no record exists for the key
// - ErrExpired: cached record older than its TTL
// - ErrVersionMismatch: cached record granted under a superseded schema version
// - ErrCorrupt: persisted data unreadable or unparseable
// - ErrUnavailable: backing service temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("expired")
	ErrVersionMismatch = errors.New("version mismatch")
	ErrCorrupt         = errors.New("corrupt")
	ErrUnavailable     = errors.New("unavailable")
)
