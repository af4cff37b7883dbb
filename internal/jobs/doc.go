// Package jobs binds collectors to delivery as scheduler jobs.
//
// Each job is one collection cycle: read (Modbus poll, meter reads or a
// bounded UDP receive window), then hand the records to the delivery
// dispatcher. Jobs return an error when the cycle as a whole failed; the
// scheduler logs it and runs the job again on the next tick.
package jobs
