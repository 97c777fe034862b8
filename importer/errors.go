package importer

import (
	"errors"
	"fmt"
)

// Error codes for run-level failures.
const (
	CodeSourceRead       = "SOURCE_READ"
	CodeHeaderInvalid    = "HEADER_INVALID"
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeUnknownEntity    = "UNKNOWN_ENTITY"
	CodeStagingFailed    = "STAGING_FAILED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeLoadFailed       = "LOAD_FAILED"
	CodeCanceled         = "CANCELED"
)

// ImportError is a run failure. Stats holds the counts reached before the
// failure; rows already committed by earlier batches stay committed.
type ImportError struct {
	Code     string
	Message  string
	Table    string
	SQLState string
	Stats    Stats
	Err      error
}

func (e *ImportError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Table != "" {
		msg += " (table " + e.Table + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ImportError) Unwrap() error { return e.Err }

func newError(code, message string, err error) *ImportError {
	return &ImportError{Code: code, Message: message, Err: err}
}

// ErrorCode returns the ImportError code carried by err, or "".
func ErrorCode(err error) string {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
