package errors

import (
	"errors"
	"fmt"
	"strings"
)

// FileError is a failure scoped to one source file of a task.
type FileError struct {
	Task string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Task, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// TaskFailure aggregates the per-file errors of a task that kept going.
type TaskFailure struct {
	Task     string
	Category ErrorCategory
	Files    []*FileError
}

func (e *TaskFailure) Error() string {
	if len(e.Files) == 1 {
		return fmt.Sprintf("task %s failed: %v", e.Task, e.Files[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "task %s failed on %d files", e.Task, len(e.Files))
	for _, f := range e.Files {
		b.WriteString("\n  ")
		b.WriteString(f.Path)
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual file errors to errors.Is / errors.As.
func (e *TaskFailure) Unwrap() []error {
	out := make([]error, len(e.Files))
	for i, f := range e.Files {
		out[i] = f
	}
	return out
}

// Classify returns a ClassifiedError representing the failure as a whole.
func (e *TaskFailure) Classify() *ClassifiedError {
	return NewError(e.Category, "task "+e.Task+" failed").
		WithCause(e).
		WithContext("task", e.Task).
		WithContext("files", len(e.Files)).
		Build()
}

// AsTaskFailure finds the first TaskFailure in the chain.
func AsTaskFailure(err error) (*TaskFailure, bool) {
	var tf *TaskFailure
	if errors.As(err, &tf) {
		return tf, true
	}
	return nil, false
}

// FileErrors collects per-file errors for one task. The zero value is not usable; use NewFileErrors.
type FileErrors struct {
	task     string
	category ErrorCategory
	files    []*FileError
}

// NewFileErrors returns a collector for the named task.
func NewFileErrors(task string, category ErrorCategory) *FileErrors {
	return &FileErrors{task: task, category: category}
}

// Add records err for path and returns the FileError. A nil err is ignored.
func (c *FileErrors) Add(path string, err error) *FileError {
	if err == nil {
		return nil
	}
	fe := &FileError{Task: c.task, Path: path, Err: err}
	c.files = append(c.files, fe)
	return fe
}

// Len returns the number of recorded errors.
func (c *FileErrors) Len() int { return len(c.files) }

// Err returns a *TaskFailure when any errors were recorded, otherwise nil.
func (c *FileErrors) Err() error {
	if len(c.files) == 0 {
		return nil
	}
	return &TaskFailure{Task: c.task, Category: c.category, Files: c.files}
}
