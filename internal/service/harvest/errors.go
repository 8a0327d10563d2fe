package harvest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every error that rejects a batch because of its content.
var ErrValidation = errors.New("invalid harvest batch")

// ErrEmptyBatch indicates the submission carried no records.
var ErrEmptyBatch = fmt.Errorf("%w: no records received", ErrValidation)

// ErrIDExhausted indicates the stored table holds an ID too large to number after.
var ErrIDExhausted = errors.New("harvest id space exhausted")

// MissingFieldError lists the required fields a record left empty.
type MissingFieldError struct {
	Index  int
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record %d: missing fields [%s]", e.Index, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrValidation
}

// DateFormatError carries the date text that could not be parsed.
type DateFormatError struct {
	Index int
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("record %d: invalid date %q", e.Index, e.Value)
}

func (e *DateFormatError) Is(target error) bool {
	return target == ErrValidation
}
