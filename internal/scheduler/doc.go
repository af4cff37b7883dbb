// Package scheduler runs named jobs on a clock-aligned, fixed-period
// cadence.
//
// A job's first run is at the next wall-clock instant that is a whole
// multiple of its period, plus the job's extra delay. A 5 minute job
// therefore fires at :00, :05, :10 and so on regardless of when the process
// started. After the first run the job ticks every period.
//
// Each job runs in its own goroutine and never overlaps itself: a tick that
// elapses while the previous run is still in progress is dropped. Jobs must
// bound their own run time. Errors are logged and the schedule continues;
// there is no retry at this layer.
package scheduler
