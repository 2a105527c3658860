package store

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrValidation   = errors.New("invalid student")
	ErrDuplicateKey = errors.New("roll number already exists")
	ErrNotFound     = errors.New("student not found")
	ErrIO           = errors.New("backing file i/o failed")
)

// IOError reports a failed read or write of the backing file.
// errors.Is(err, ErrIO) holds for every IOError.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

func ioError(op, path string, err error) error {
	return errors.WithStack(&IOError{Op: op, Path: path, Err: err})
}
