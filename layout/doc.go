// Package layout renders log entries into strings for targets.
//
// A Layout is the rendering unit that targets are configured with: a
// message layout, a category layout, a caption, a details document. Two
// implementations exist. SimpleLayout is parsed from text containing
// ${name} or ${name:arg} renderers, for example
//
//	${time} [${level}] ${logger}: ${message}${fields}
//
// JSONLayout renders a flat JSON object from named attribute layouts and,
// optionally, all event fields and ambient scope fields.
//
// Layouts are parsed once at configuration time; Parse reports unknown
// renderers and malformed markup, so Render itself never fails. Rendering
// uses pooled bytes.Buffer values and Append-style helpers. Buffers larger
// than 64 KiB are not returned to the pool.
package layout
