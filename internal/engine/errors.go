package engine

import "errors"

// ErrMissingClaims is returned when no claim survives normalization.
// This is the one caller error that short-circuits before any port is
// invoked; everything else degrades to a best-effort result.
var ErrMissingClaims = errors.New("Missing claims[]")
