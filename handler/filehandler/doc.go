// Package filehandler provides file targets that append one rendered layout
// line per entry to a file, with rotation by size or interval.
//
// Handlers are split into specialized sync and async variants:
//
//   - SyncFileHandler renders and writes in the caller's goroutine.
//   - AsyncFileHandler queues rendered lines for a dedicated writer
//     goroutine and applies a per-level OverflowPolicy when the queue is
//     full.
//
// Rotated files are renamed to <filename>.<timestamp>; MaxBackups bounds
// how many are kept. NewFileHandler chooses the variant from the Async
// field in FileConfig.
package filehandler
