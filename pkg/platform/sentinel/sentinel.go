package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about stored records, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: create collided with an existing record (e.g. blood units
//   already materialized for a donation process)
// - ErrExpired: the record's validity window has passed
// - ErrInvalidState: record is in the wrong lifecycle state for the change
// - ErrUnavailable: backing store temporarily unreachable
//
// For validation errors (bad input, rule violations), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
