package docstore

import "errors"

// ErrNotFound is returned by mutations that target a missing document.
var ErrNotFound = errors.New("document not found")
