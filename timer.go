package main

import "time"

// cancelFunc stops a scheduled task. Calling it twice, or after the task
// has fired, is harmless.
type cancelFunc func()

// timerFactory schedules fn to run once after d. Production code uses
// newTimer; tests inject a manual factory and fire tasks by hand instead
// of sleeping.
type timerFactory func(d time.Duration, fn func()) cancelFunc

func newTimer(d time.Duration, fn func()) cancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
