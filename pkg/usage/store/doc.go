// Package store persists per-request usage records to SQLite.
//
// Records are enqueued on a buffered channel and written by a single
// background worker in batches, so the request path never waits on disk.
// When the queue is full, records are dropped with a warning rather than
// blocking. A cron-driven retention job prunes old rows.
package store
