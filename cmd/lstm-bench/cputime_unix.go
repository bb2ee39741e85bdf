//go:build linux || darwin || freebsd

package main

import (
	"time"

	"golang.org/x/sys/unix"
)

// cpuTimes returns user and system CPU time consumed by this process,
// summed across all threads.
func cpuTimes() (user, sys time.Duration) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, 0
	}
	return timevalDuration(ru.Utime), timevalDuration(ru.Stime)
}

func timevalDuration(tv unix.Timeval) time.Duration {
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}

func cpuTimeNow() time.Duration {
	user, sys := cpuTimes()
	return user + sys
}
