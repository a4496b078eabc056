// Package ident generates record identifiers for users and tasks.
package ident

import (
	"strconv"
	"time"
)

// NewID returns a timestamp-derived identifier (Unix milliseconds as a
// decimal string). Monotonically increasing under normal request rates;
// collision under rapid concurrent creation is an accepted weakness of
// the storage format.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
