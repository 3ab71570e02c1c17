package storage

import "errors"

var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrVerificationNotFound = errors.New("verification not found")
	ErrPostNotFound         = errors.New("post not found")
	ErrCommentNotFound      = errors.New("comment not found")

	// ErrCacheUnavailable is returned by the counter store when redis is
	// absent or unreachable. Callers that use counters for protection
	// treat it as "skip the check" (fail-open), never as a request error.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
