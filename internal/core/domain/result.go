package domain

// SkipReason explains why an item left the pipeline.
type SkipReason string

// Skip reasons, also used as the reason label of the drops metric.
const (
	SkipBotAuthor      SkipReason = "bot_author"
	SkipNoText         SkipReason = "no_text"
	SkipResolveAuthor  SkipReason = "resolve_author"
	SkipNormalizeError SkipReason = "normalize_error"
	SkipSchemaInvalid  SkipReason = "schema_invalid"
	SkipBelowMinLength SkipReason = "below_min_length"
)

// Result is the per-item outcome of a pipeline stage: either a value or a skip.
type Result[T any] struct {
	value  T
	reason SkipReason
	detail string
	ok     bool
}

// Ok wraps a value that continues through the pipeline.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Skip marks an item as dropped with a reason and optional detail.
func Skip[T any](reason SkipReason, detail string) Result[T] {
	return Result[T]{reason: reason, detail: detail}
}

// Get returns the value and whether the result is Ok.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

// IsOk reports whether the result carries a value.
func (r Result[T]) IsOk() bool {
	return r.ok
}

// Reason returns the skip reason; empty for Ok results.
func (r Result[T]) Reason() SkipReason {
	return r.reason
}

// Detail returns the skip detail, if any.
func (r Result[T]) Detail() string {
	return r.detail
}

// Then applies fn to an Ok value and passes skips through unchanged.
func Then[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	v, ok := r.Get()
	if !ok {
		return Skip[U](r.reason, r.detail)
	}

	return fn(v)
}
