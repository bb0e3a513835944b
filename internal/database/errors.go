package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

// ErrStorageUnavailable marks failures caused by the store being unreachable
// or not yet connected, as opposed to a rejected query.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError wraps a failed persistence operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Unavailable builds the error returned while the store is disconnected.
func Unavailable(op string) error {
	return &StorageError{Op: op, Err: ErrStorageUnavailable}
}

// Wrap tags err with the operation and, when isConnErr reports a connectivity
// problem, with ErrStorageUnavailable as well.
func Wrap(op string, err error, isConnErr func(error) bool) error {
	if err == nil {
		return nil
	}
	if isConnErr != nil && isConnErr(err) {
		err = fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return &StorageError{Op: op, Err: err}
}

// IsNetError covers errors every backend treats as "store unreachable".
func IsNetError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
