package common

import "errors"

// ErrorNotFound is returned by repositories and services for a missing
// menu, dashboard, post or row.
var ErrorNotFound = errors.New("not found")
