package draft

import "errors"

// ErrInvalidFragment is returned when a fragment is empty after trimming.
var ErrInvalidFragment = errors.New("invalid fragment: empty after trimming")
