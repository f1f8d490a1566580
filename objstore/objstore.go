// Package objstore defines the per-object storage contract the object class
// handlers run against: a byte range, extended attributes and a sorted
// key/value map scoped to each named object.
package objstore

import "github.com/pkg/errors"

// ErrNotFound is returned when an object, attribute or map key is absent.
var ErrNotFound = errors.New("not found")

// ErrOutOfRange is returned by Write when the written range would overflow
// or grow the object past the store's size limit.
var ErrOutOfRange = errors.New("write out of range")

// DefaultMaxObjectSize bounds object sizes when a store is not configured
// otherwise.
const DefaultMaxObjectSize = 1 << 30

// Object is a handle to a single named storage object. Handles are cheap and
// do not imply the object exists; any mutating call creates it.
//
// Byte ranges inside the object size that were never written read back as
// zeros. Reads past the end of the object are truncated at the object size.
type Object interface {
	Name() string

	// Stat returns the object size, or ErrNotFound if the object does not
	// exist.
	Stat() (uint64, error)

	Read(offset, length uint64) ([]byte, error)
	Write(offset uint64, data []byte) error

	GetXattr(key string) ([]byte, error)
	SetXattr(key string, value []byte) error

	OmapGet(key string) ([]byte, error)
	OmapSet(key string, value []byte) error
}

// Store hands out object handles.
type Store interface {
	Object(name string) Object
	Close() error
}

// CheckWriteRange rejects a write of length bytes at offset that wraps the
// offset space or ends beyond maxSize.
func CheckWriteRange(offset, length, maxSize uint64) error {
	end := offset + length
	if end < offset || end > maxSize {
		return errors.Wrapf(ErrOutOfRange, "%d bytes at offset %d exceed object size limit %d", length, offset, maxSize)
	}
	return nil
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
