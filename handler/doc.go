// Package handler provides the Handler interface that every nlog target
// implements, plus the shared plumbing targets build on.
//
// A handler receives one *core.Entry per Handle call. Handlers may
// advertise optional capabilities that the logger checks once at build
// time rather than per event:
//
//   - CallSiteCapturer asks the logger to capture caller data (precomputed
//     CallerInfo, a raw program counter, or both). Loggers skip runtime
//     call-site lookups entirely when no handler asks for them.
//   - Recycler tells the logger the entry may be returned to the pool once
//     Handle returns.
//   - StatsProvider exposes dropped/blocked/processed counters.
//
// Async handlers apply a per-level OverflowPolicy when their queue is
// full: DropNewest (default for Trace through Warn), DropOldest, or Block
// with a timeout (default for Error and above).
//
// Built-in handlers live in sub-packages: consolehandler writes rendered
// layouts to an io.Writer, loupehandler forwards events to a Loupe agent,
// and sloghandler adapts nlog handlers to log/slog. MultiHandler fans one
// entry out to several handlers.
package handler
