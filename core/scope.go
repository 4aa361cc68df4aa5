package core

import "context"

type scopeKey struct{}

// WithScope returns a context carrying fields as ambient scope properties.
// Fields already present in ctx are kept; later keys shadow earlier ones
// when rendered by key.
func WithScope(ctx context.Context, fields ...Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	parent := ScopeFields(ctx)
	merged := make([]Field, 0, len(parent)+len(fields))
	merged = append(merged, parent...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, scopeKey{}, merged)
}

// ScopeFields returns the scope properties carried by ctx. The returned
// slice must not be modified.
func ScopeFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(scopeKey{}).([]Field)
	return fields
}

// LookupField returns the last field named key, searching from the end so
// that later values shadow earlier ones.
func LookupField(fields []Field, key string) (Field, bool) {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Key == key {
			return fields[i], true
		}
	}
	return Field{}, false
}
