// Package system provides the wall clock used by crawl records.
package system

import "time"

// Clock implements crawler.Clock with the real time of day. Timestamps are
// always UTC so crawl records sort stably across machines.
type Clock struct{}

// New creates a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
