// Package consolehandler provides console targets that write one rendered
// layout line per entry to any io.Writer (default: os.Stdout).
//
// Handlers are split into specialized sync and async variants:
//
//   - SyncConsoleHandler renders and writes in the caller's goroutine.
//   - AsyncConsoleHandler renders in the caller's goroutine and queues the
//     line for a background writer, applying a per-level OverflowPolicy
//     when the queue is full.
//
// The factory function NewConsoleHandler automatically chooses the
// right variant based on the Async field in ConsoleConfig.
package consolehandler
