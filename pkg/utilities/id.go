package utilities

import "github.com/segmentio/ksuid"

// NewKSUID generates a new globally unique KSUID string. Used for
// request correlation ids on outbound backend calls.
func NewKSUID() string {
	return ksuid.New().String()
}
