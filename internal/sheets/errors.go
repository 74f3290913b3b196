package sheets

import "errors"

var ErrMissingTimestamp = errors.New("missing timestamp")
