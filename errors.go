package ipmisdr

import (
	"errors"
	"fmt"
)

// An ArgumentError suggests that the arguments are wrong
type ArgumentError struct {
	Value   interface{} // Argument that has a problem
	Message string      // Error message
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s, value `%v`", e.Message, e.Value)
}

// A DecodingError suggests that a record or response could not be decoded.
// It is never retried.
type DecodingError struct {
	Cause   error  // Cause of the error
	Message string // Error message
	Detail  string // Detail of the error for debugging
}

func (e *DecodingError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s, cause `%v`", e.Message, e.Cause)
}

func (e *DecodingError) Unwrap() error { return e.Cause }

// A CommandError suggests that the BMC rejected a command with a non-zero completion code
type CommandError struct {
	CompletionCode CompletionCode
	Command        Command
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("Command %s(%02x) failed - %s", e.Command.Name(), e.Command.Code(), e.CompletionCode)
}

// A RetryError suggests that the attempt budget was consumed while recovering
// from reservation loss, a busy BMC or a page size shrink.
type RetryError struct {
	Command  Command
	RecordID uint16
	Attempts int
	Cause    error // Last condition seen before giving up
}

func (e *RetryError) Error() string {
	s := fmt.Sprintf("Command %s gave up on record 0x%04x after %d attempts", e.Command.Name(), e.RecordID, e.Attempts)
	if e.Cause != nil {
		s += fmt.Sprintf(", last `%v`", e.Cause)
	}
	return s
}

func (e *RetryError) Unwrap() error { return e.Cause }

// An UnsupportedRecordTypeError is returned for record types that have no decoder.
// NextRecordID allows an enumeration to continue past the record.
type UnsupportedRecordTypeError struct {
	RecordType   SDRType
	RecordID     uint16
	NextRecordID uint16
}

func (e *UnsupportedRecordTypeError) Error() string {
	return fmt.Sprintf("Unsupported SDR type(0x%02x) in record 0x%04x", uint8(e.RecordType), e.RecordID)
}

// A ConversionError suggests that a sensor value cannot be encoded as a raw reading
type ConversionError struct {
	Value   float64
	Message string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s, value `%v`", e.Message, e.Value)
}

// ErrUnsupportedConversion is returned when the inverse conversion is not
// implemented for the record's linearization or data format.
var ErrUnsupportedConversion = errors.New("Unsupported sensor value conversion")

// CompletionCodeOf returns the completion code carried by err, if any.
func CompletionCodeOf(err error) (CompletionCode, bool) {
	var e *CommandError
	if errors.As(err, &e) {
		return e.CompletionCode, true
	}
	return CompletionOK, false
}
