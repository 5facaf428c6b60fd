package overlay

import "time"

// Scheduler runs deferred callbacks for a Controller. Callbacks must be
// delivered on the same goroutine that drives the Controller.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	Now() time.Time
}

type Timer interface {
	Stop() bool
}
