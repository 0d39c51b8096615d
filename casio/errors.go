package casio

import (
	"errors"
	"fmt"
)

// ErrShortBuffer is wrapped by DecodeError when a buffer ends early
var ErrShortBuffer = errors.New("buffer too short")

// ErrWrongCommand is wrapped by DecodeError when a buffer starts with an
// unexpected command byte
var ErrWrongCommand = errors.New("unexpected command byte")

// DecodeError reports a malformed buffer. It fails a single decode only.
type DecodeError struct {
	Cmd    Command
	Offset int
	Msg    string
	err    error
}

func (e *DecodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("decode %s at offset %d: %s: %v", e.Cmd, e.Offset, e.Msg, e.err)
	}
	return fmt.Sprintf("decode %s at offset %d: %s", e.Cmd, e.Offset, e.Msg)
}

func (e *DecodeError) Unwrap() error {
	return e.err
}

// IsDecodeError reports whether err is (or wraps) a DecodeError
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func shortBuffer(cmd Command, have, want int) error {
	return &DecodeError{
		Cmd:    cmd,
		Offset: have,
		Msg:    fmt.Sprintf("need %d bytes, have %d", want, have),
		err:    ErrShortBuffer,
	}
}

// expect checks the leading command byte and the minimum buffer length
func expect(b []byte, cmd Command, minLen int) error {
	if len(b) == 0 {
		return shortBuffer(cmd, 0, minLen)
	}
	if Command(b[0]) != cmd {
		return &DecodeError{
			Cmd: cmd,
			Msg: fmt.Sprintf("got 0x%02X", b[0]),
			err: ErrWrongCommand,
		}
	}
	if len(b) < minLen {
		return shortBuffer(cmd, len(b), minLen)
	}
	return nil
}
