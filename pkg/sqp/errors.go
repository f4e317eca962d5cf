package sqp

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFormat                 = errors.New("sqp: bad magic or unsupported version")
	ErrDimension              = errors.New("sqp: invalid dimensions")
	ErrUnsupportedColorFormat = errors.New("sqp: unsupported color format")
	ErrInvalidQuality         = errors.New("sqp: quality out of range")
	ErrTruncatedStream        = errors.New("sqp: truncated stream")
	ErrCorruptData            = errors.New("sqp: corrupt data")
	ErrInvalidOptions         = errors.New("sqp: invalid options")
	ErrInvalidImage           = errors.New("sqp: invalid image")
)

// State is a step of the decoder.
type State uint8

const (
	StateReadHeader State = iota
	StateValidateHeader
	StateReadSegment
	StateDecodeSegment
	StateAssemble
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateReadHeader:
		return "read-header"
	case StateValidateHeader:
		return "validate-header"
	case StateReadSegment:
		return "read-segment"
	case StateDecodeSegment:
		return "decode-segment"
	case StateAssemble:
		return "assemble"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// DecodeError reports the decoder state and segment a failure happened in.
// It unwraps to one of the package sentinels.
type DecodeError struct {
	State   State
	Segment int // -1 outside the segment loop
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("%v (in %s)", e.Err, e.State)
	}
	return fmt.Sprintf("%v (in %s, segment %d)", e.Err, e.State, e.Segment)
}

func (e *DecodeError) Unwrap() error { return e.Err }
