package decode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Kind categorises decode failures.
type Kind string

const (
	// KindUnsupportedInput: no decoder is registered for the input, or the
	// input uses a recognised but deliberately unimplemented grammar branch.
	KindUnsupportedInput Kind = "UnsupportedInput"

	// KindInvalidParameterValue: a value is present but semantically wrong.
	KindInvalidParameterValue Kind = "InvalidParameterValue"

	// KindMissingParameter: a required sub-element or attribute is absent.
	KindMissingParameter Kind = "MissingParameter"

	// KindNoApplicableCode: an underlying failure or internal invariant
	// violation. May carry the nested error as Cause.
	KindNoApplicableCode Kind = "NoApplicableCode"

	// KindUnsupportedOperation: a well-formed combination the decoder cannot
	// process (for example bulk values for a non-record array element).
	KindUnsupportedOperation Kind = "UnsupportedOperation"
)

// Fault returns "server" for NoApplicableCode and "client" for every other
// kind. The request layer maps these to response codes.
func (k Kind) Fault() string {
	if k == KindNoApplicableCode {
		return "server"
	}
	return "client"
}

// Error is the single error type returned by decoders.
type Error struct {
	Kind Kind

	// Parameter names the offending parameter for InvalidParameterValue,
	// MissingParameter and UnsupportedOperation.
	Parameter string

	// Name is the qualified name of the offending node, when known.
	Name string

	// Reason is a human-readable description.
	Reason string

	// Cause is the wrapped failure. Only NoApplicableCode sets it.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Parameter != "" {
		fmt.Fprintf(&b, " [%s]", e.Parameter)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " (%s)", e.Name)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the cause of a NoApplicableCode error.
func (e *Error) Unwrap() error { return e.Cause }

// UnsupportedInput reports a node no decoder accepts.
func UnsupportedInput(name xmltree.Name, reason string) *Error {
	return &Error{Kind: KindUnsupportedInput, Name: name.String(), Reason: reason}
}

// UnsupportedValue reports a recognised value the decoders do not support
// (for example a count outside the 32-bit range).
func UnsupportedValue(parameter, reason string) *Error {
	return &Error{Kind: KindUnsupportedInput, Parameter: parameter, Reason: reason}
}

// InvalidParameterValue reports a present but semantically wrong value.
func InvalidParameterValue(parameter, reason string) *Error {
	return &Error{Kind: KindInvalidParameterValue, Parameter: parameter, Reason: reason}
}

// InvalidParameterValuef is InvalidParameterValue with a formatted reason.
func InvalidParameterValuef(parameter, format string, args ...any) *Error {
	return InvalidParameterValue(parameter, fmt.Sprintf(format, args...))
}

// MissingParameter reports an absent required sub-element or attribute.
func MissingParameter(parameter string) *Error {
	return &Error{Kind: KindMissingParameter, Parameter: parameter, Reason: "missing value"}
}

// NoApplicableCode reports an internal failure, optionally wrapping cause.
func NoApplicableCode(reason string, cause error) *Error {
	return &Error{Kind: KindNoApplicableCode, Reason: reason, Cause: cause}
}

// UnsupportedOperation reports a combination the decoder cannot process.
func UnsupportedOperation(parameter, reason string) *Error {
	return &Error{Kind: KindUnsupportedOperation, Parameter: parameter, Reason: reason}
}

// KindOf extracts the kind of the outermost decode error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

func isKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsUnsupportedInput reports whether err is an UnsupportedInput error.
func IsUnsupportedInput(err error) bool { return isKind(err, KindUnsupportedInput) }

// IsInvalidParameterValue reports whether err is an InvalidParameterValue error.
func IsInvalidParameterValue(err error) bool { return isKind(err, KindInvalidParameterValue) }

// IsMissingParameter reports whether err is a MissingParameter error.
func IsMissingParameter(err error) bool { return isKind(err, KindMissingParameter) }

// IsNoApplicableCode reports whether err is a NoApplicableCode error.
func IsNoApplicableCode(err error) bool { return isKind(err, KindNoApplicableCode) }

// IsUnsupportedOperation reports whether err is an UnsupportedOperation error.
func IsUnsupportedOperation(err error) bool { return isKind(err, KindUnsupportedOperation) }
