// Package faults defines the error taxonomy shared by every csvwatch
// component and the orchestration boundary that classifies failures.
//
// Configuration errors are fatal and stop a run before any file is touched.
// Every other kind isolates to the file being processed: the orchestrator
// logs it and moves on to the next stable file.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid settings. Fatal; aborts startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrFileProcessing marks I/O failures, oversized files, unreadable
	// checksums, and load failures. Isolates to one file.
	ErrFileProcessing = errors.New("file processing error")
	// ErrValidation marks structural problems in an otherwise readable
	// table: empty, missing key or required columns, null key values.
	ErrValidation = errors.New("data validation error")
	// ErrLockTimeout marks a master lock that could not be acquired in
	// time. The file stays in the watch directory for a later run.
	ErrLockTimeout = errors.New("lock timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrFileProcessing
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the whole run rather than the
// current file.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Kind returns a short label for the error's taxonomy bucket, used in logs
// and the journal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, ErrFileProcessing):
		return "file_processing"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "processing failure"
	}
	return strings.Join(parts, ": ")
}
