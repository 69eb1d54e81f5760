package template

import "errors"

// ErrUnknown indicates an invalid template name was specified.
var ErrUnknown = errors.New("unknown template")
