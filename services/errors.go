package services

import "errors"

// Sentinel errors surfaced to handlers. Wrap with fmt.Errorf("...%w...")
// so callers can errors.Is against these.
var (
	// ErrInvalidTransition: attempted status change violates the match state
	// machine (e.g. accepting a rejected match). Never silently corrected.
	ErrInvalidTransition = errors.New("invalid match transition")

	// ErrConcurrentModification: the optimistic status update lost a race.
	// The caller must retry with fresh state or surface a conflict.
	ErrConcurrentModification = errors.New("match modified concurrently")

	// ErrMalformedSnapshot: a persisted gamification snapshot could not be
	// parsed. Treated like absent data: logged, never fatal.
	ErrMalformedSnapshot = errors.New("malformed gamification snapshot")

	// ErrPersistenceUnavailable: the snapshot store failed. Reads fall back
	// to defaults; write failures are surfaced since they lose points.
	ErrPersistenceUnavailable = errors.New("gamification store unavailable")
)
