package currency

import "errors"

// errUnavailable is internal only: the public surface reports failures
// as a missing value, never as a reason.
var errUnavailable = errors.New("rate service unavailable")
