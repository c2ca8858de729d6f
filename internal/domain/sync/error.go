package sync

import "errors"

var ErrNoStore = errors.New("tenant partition is not resolved")
