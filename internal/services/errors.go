package services

import (
	"errors"
	"fmt"
)

// Validation errors. They are returned before any remote call is made.
var (
	ErrMissingFile         = errors.New("resume file is required")
	ErrDescriptionTooShort = errors.New("job description is too short")
	ErrDescriptionTooLong  = errors.New("job description is too long")
	ErrUnsupportedFileType = errors.New("unsupported resume file type")
)

// ErrAnalysisInProgress is returned when the session already has a running analysis.
var ErrAnalysisInProgress = errors.New("an analysis is already running for this session")

// Sentinels matched by errors.Is against a *RemoteError of the same kind.
var (
	ErrIndexNotFound = errors.New("index not found")
	ErrQuotaExceeded = errors.New("document service quota exceeded")
)

const (
	QuotaExceededMessage  = "Your daily limit has been reached. Please try again later."
	AnalysisFailedMessage = "We could not analyze your resume. Please try again."
)

// ErrorKind classifies a failure reported by a DocumentService.
type ErrorKind string

const (
	KindUnclassified  ErrorKind = "unclassified"
	KindIndexNotFound ErrorKind = "index_not_found"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
)

// RemoteError is the only error type a DocumentService returns for failed calls.
type RemoteError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%s, status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrIndexNotFound:
		return e.Kind == KindIndexNotFound
	case ErrQuotaExceeded:
		return e.Kind == KindQuotaExceeded
	}
	return false
}

func NewRemoteError(op string, kind ErrorKind, statusCode int, err error) *RemoteError {
	if kind == "" {
		kind = KindUnclassified
	}
	return &RemoteError{Op: op, Kind: kind, StatusCode: statusCode, Err: err}
}

// IsValidationError reports whether err was produced by input validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrDescriptionTooShort) ||
		errors.Is(err, ErrDescriptionTooLong) ||
		errors.Is(err, ErrUnsupportedFileType)
}

// ClassifyError maps any analysis failure to the kind stored on run records.
func ClassifyError(err error) ErrorKind {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Kind
	}
	return KindUnclassified
}

// UserMessage is the text shown to the user for a failed analysis.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingFile):
		return "Please upload your resume."
	case errors.Is(err, ErrDescriptionTooShort):
		return fmt.Sprintf("Job description must be at least %d characters long.", MinJobDescriptionLength)
	case errors.Is(err, ErrDescriptionTooLong):
		return fmt.Sprintf("Job description cannot be longer than %d characters.", MaxJobDescriptionLength)
	case errors.Is(err, ErrUnsupportedFileType):
		return "Only PDF and DOCX resumes are supported."
	case errors.Is(err, ErrQuotaExceeded):
		return QuotaExceededMessage
	case errors.Is(err, ErrAnalysisInProgress):
		return "Please wait while we analyze your resume..."
	default:
		return AnalysisFailedMessage
	}
}
