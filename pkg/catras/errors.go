package catras

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is wrapped by every structural decode failure.
	ErrInvalidFormat = errors.New("invalid CATRAS file")
	// ErrTooShort indicates a buffer shorter than one header block.
	ErrTooShort = fmt.Errorf("%w: file too short", ErrInvalidFormat)
	// ErrInvalidFileSize indicates a length that is not a multiple of 128.
	ErrInvalidFileSize = fmt.Errorf("%w: file size is not a multiple of %d", ErrInvalidFormat, BlockSize)
	// ErrInvalidNumberFormat indicates a number-format byte other than IEEE.
	ErrInvalidNumberFormat = fmt.Errorf("%w: unsupported number format", ErrInvalidFormat)
	// ErrOutOfRange indicates an access past the end of the buffer.
	ErrOutOfRange = errors.New("byte range out of bounds")
	// ErrEncoding indicates a record that cannot be represented as CATRAS.
	ErrEncoding = errors.New("cannot encode CATRAS file")
)

// structural converts a low-level range failure into a decode failure.
func structural(err error) error {
	if err == nil || errors.Is(err, ErrInvalidFormat) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
}

func encodingError(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrEncoding, field, fmt.Sprintf(format, args...))
}
