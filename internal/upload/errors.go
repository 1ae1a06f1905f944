package upload

import "errors"

// Reason classifies why the gate did not accept an upload as-is.
type Reason string

const (
	// NotApplicable means the upload does not claim to be SVG and passes
	// through untouched. It is not an error.
	NotApplicable Reason = "not_applicable"
	// InvalidContent means the upload claims SVG but is not usable SVG.
	InvalidContent Reason = "invalid_content"
	// DecodeFailure means the bytes could not be read or interpreted. It is
	// handled exactly like InvalidContent.
	DecodeFailure Reason = "decode_failure"
)

// ErrRejected is matched by every *RejectionError.
var ErrRejected = errors.New("upload rejected")

// RejectionError carries the user-facing rejection message.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}
