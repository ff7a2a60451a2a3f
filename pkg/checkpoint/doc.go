// Package checkpoint persists scan progress for resumable runs.
//
// One checkpoint file lives beside each year's chunk files and records the
// number of the last chunk whose I/O completed. Saves are atomic (write
// temp, fsync, rename), so a crash mid-save leaves the previous value
// intact and a restarted scan resumes from the right position. The file is
// removed only as part of chunk-directory cleanup after a verified merge.
package checkpoint
