package models

import "errors"

// Domain error kinds. All are per-request failures surfaced to the caller;
// none is fatal to the process and the core never retries internally.
var (
	// ErrStationNotFound means a referenced station name or id does not exist.
	ErrStationNotFound = errors.New("station not found")

	// ErrSessionNotFound means the charging session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnauthorized means an ownership or role check failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState means a lifecycle transition is not valid from the
	// session's current status (e.g. stopping a non-Active session).
	ErrInvalidState = errors.New("only active sessions can be stopped")

	// ErrPaymentFailed means the payment gateway declined or timed out.
	// No session or queue state is persisted when this is returned, so the
	// caller may safely retry the whole request.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrNotInQueue means the user holds no queue entry at the station.
	ErrNotInQueue = errors.New("not in queue")

	// ErrUserBlacklisted means the account is blocked from starting sessions.
	ErrUserBlacklisted = errors.New("account is blacklisted")

	// ErrInvalidInput means a request carried an out-of-range value.
	ErrInvalidInput = errors.New("invalid input")
)
