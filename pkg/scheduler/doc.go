// Package scheduler repeats pipeline batches on a cron schedule.
//
// Schedules use github.com/robfig/cron/v3 standard expressions
// ("0 9 * * *") or descriptors ("@daily", "@every 6h"). Only one run is
// ever in flight; ticks that arrive while a run is in progress are counted
// as skipped.
package scheduler
