package timeouts

import "time"

const (
	// Probe bounds the /version check used to detect a running backend.
	Probe         = 300 * time.Millisecond
	SecondShort   = 2 * time.Second
	SecondDefault = 10 * time.Second
	SecondLong    = 30 * time.Second
	Shutdown      = 2 * time.Second
	// ServerStart is the total budget for a freshly spawned pocod to answer.
	ServerStart = 15 * time.Second
)
