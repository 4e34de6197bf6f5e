package stream

import "errors"

// ErrMalformedRecord is returned for stream records that cannot be mirrored.
var ErrMalformedRecord = errors.New("stream: malformed record")
