// Package errors provides the classified error primitives used across pagesmith.
//
// Every failure that leaves a task carries an ErrorCategory (config, render,
// style, image, deploy, ...), a severity and a retry hint. The CLI adapter maps
// categories to process exit codes.
//
//	err := errors.RenderError("template failed").
//		WithCause(parseErr).
//		WithContext("file", path).
//		Build()
package errors
