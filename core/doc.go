// Package core defines the shared types used across nlog and its targets.
//
// It provides the Level type for severity filtering, the Entry type that
// represents a single log event, and the Field type for zero-allocation
// structured key-value pairs.
//
// An Entry carries everything a target may need to translate an event into
// another system's model: the formatted message and the raw template with
// its positional arguments, the explicitly attached error, event fields,
// ambient scope fields taken from a context.Context, and call-site data.
// Call-site data comes in two shapes: a program counter (PC) that targets
// resolve themselves, or precomputed CallerInfo strings. Loggers only
// capture what their handler asks for through CaptureMode.
//
// Entry objects are pooled via sync.Pool to keep the hot path
// allocation-free. Callers get an Entry with GetEntry and must
// return it with PutEntry once the handler has consumed it.
package core
