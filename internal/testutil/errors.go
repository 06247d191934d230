package testutil

import "errors"

// ErrSimulated is returned by fakes to drive error paths, e.g. a failing combat log store.
var ErrSimulated = errors.New("simulated error for testing")
