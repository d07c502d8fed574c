// Package errors provides structured error types for typworld.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the virtual path involved, a detail message and a cause chain.
//
// The file taxonomy the world hands to engines maps onto kinds:
//
//	KindNotFound      no entry stored for the path
//	KindNotSource     entry is binary but source text was requested
//	KindAccessDenied  the store can no longer be locked (closed or poisoned)
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseWorld, errors.KindNotFound).
//		Path("images/logo.png").
//		Detail("referenced from main.typ").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseStore, "images/logo.png")
//	err := errors.Serialization("pdf", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches on kind alone, which is what engines usually need.
package errors
