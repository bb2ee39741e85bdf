//go:build !linux && !darwin && !freebsd

package main

import "time"

// cpuTimes reports zero where getrusage is unavailable.
func cpuTimes() (user, sys time.Duration) {
	return 0, 0
}

func cpuTimeNow() time.Duration {
	return 0
}
