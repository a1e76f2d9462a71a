// Package scheduler runs the periodic sweeps of the library on fixed intervals.
//
// Jobs are scheduled on github.com/robfig/cron/v3 with a constant delay each, independent of request
// handling and of the other jobs. A run that is still going when the next one is due is skipped.
// With a Locker configured, a run first takes a lock named after the job so that only one
// replica of the service executes a sweep at a time.
package scheduler
