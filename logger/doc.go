// Package logger is the public API of nlog. Most application code only
// needs to import this package.
//
// A Logger is immutable after construction: name, fields, level and
// handler are set once via the Builder and never modified, so a Logger
// is safe for concurrent use without locking on the read path.
//
// Named loggers come from a Factory, which builds every logger from one
// template Builder and caches it by name:
//
//	factory := logger.NewFactory(logger.NewBuilder().WithHandler(h))
//	log := factory.GetLogger("BusyWork")
//	log.Tracef("%s message %d of %d", name, i, total)
//
// The formatted methods keep the format string and arguments on the
// entry next to the formatted message, so targets can inspect the raw
// arguments. Err attaches an error explicitly.
//
// Call-site data is only captured when a handler asks for it through
// handler.CallSiteCapturer, or when WithCaller(true) forces it. Level
// checks happen before any allocation, so filtered-out messages cost a
// single integer comparison.
//
// The package also initializes a default Logger (async console, InfoLevel)
// for the package-level functions Info, Errorf and friends.
package logger
