package access

import "errors"

var (
	// ErrUnknownRole indicates the user context carried a role outside the
	// known set. Callers receive the public fallback predicate alongside
	// this error and must not widen it.
	ErrUnknownRole = errors.New("unknown role")
)
