package sharedlog

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnwritten is returned by Read for a position nothing was written to.
	ErrUnwritten = errors.New("sharedlog: position not written")
	// ErrInvalidated is returned by Read for a filled position.
	ErrInvalidated = errors.New("sharedlog: position invalidated")
	// ErrTaken is returned by Write when the position already holds an entry
	// or was filled.
	ErrTaken = errors.New("sharedlog: position already taken")
	// ErrWritten is returned by Fill when the position holds data.
	ErrWritten = errors.New("sharedlog: position holds data")
)

// SharedLog is a position addressed, write-once log.
type SharedLog interface {
	// Write stores data at position. Every position accepts at most one
	// Write, and none after a Fill.
	Write(ctx context.Context, position uint64, data []byte) error

	// Read returns the entry at position, zero padded to the entry size.
	Read(ctx context.Context, position uint64) ([]byte, error)

	// Fill invalidates an unwritten position so that it can never be
	// written. Filling a filled position succeeds.
	Fill(ctx context.Context, position uint64) error
}

// ObjectName is the storage object holding object number objectNo of log.
func ObjectName(log string, objectNo uint64) string {
	return fmt.Sprintf("%s.%d", log, objectNo)
}

// HeadObject is the log metadata object of log, where its views live.
func HeadObject(log string) string {
	return log + ".head"
}
