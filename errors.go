package props

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegistered reports an operation on a property that is not registered.
	ErrNotRegistered = errors.New("props: property not registered")
	// ErrUnresolved reports an owner address that resolves to no widget.
	ErrUnresolved = errors.New("props: owner not found")
	// ErrAccessor reports a missing or failing setter/getter.
	ErrAccessor = errors.New("props: accessor failed")
	// ErrTypeMismatch reports a value whose kind the accessor cannot take.
	ErrTypeMismatch = errors.New("props: type mismatch")
	// ErrNonSerializable reports a value that cannot be encoded.
	ErrNonSerializable = errors.New("props: value is not serializable")
	// ErrUnknownFormat reports a path whose extension matches no format.
	ErrUnknownFormat = errors.New("props: unknown storage format")
	// ErrMalformed reports a properties file or field that cannot be parsed.
	ErrMalformed = errors.New("props: malformed data")
)

// PropertyError ties a single-property failure to the operation and key.
type PropertyError struct {
	Op  string
	Key Key
	Err error
}

func (e *PropertyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("props: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PropertyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func propertyError(op string, key Key, err error) error {
	if err == nil {
		return nil
	}
	var perr *PropertyError
	if errors.As(err, &perr) {
		return err
	}
	return &PropertyError{Op: op, Key: key, Err: err}
}
