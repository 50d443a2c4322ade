package signal

import "errors"

// ErrMalformedHash indicates a hash with the wrong shape or encoding for its
// signal type was passed to a comparator or validator.
var ErrMalformedHash = errors.New("malformed hash")

// ErrUnknownSignalType indicates a registry lookup for a name that no
// registered signal type carries.
var ErrUnknownSignalType = errors.New("unknown signal type")
