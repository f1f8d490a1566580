// Package memorylog is an in-process SharedLog with the same entry semantics
// as the striped log.
package memorylog

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/chn0318/stripelog/sharedlog"
)

type entry struct {
	data    []byte
	invalid bool
}

type MemoryLog struct {
	entrySize int
	entries   map[uint64]entry
	mu        sync.RWMutex
}

// NewMemoryLog returns an empty log whose entries hold entrySize bytes.
func NewMemoryLog(entrySize int) *MemoryLog {
	return &MemoryLog{
		entrySize: entrySize,
		entries:   make(map[uint64]entry),
	}
}

func (l *MemoryLog) Write(_ context.Context, position uint64, data []byte) error {
	if len(data) > l.entrySize {
		return errors.Errorf("memorylog: entry of %d bytes exceeds %d", len(data), l.entrySize)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[position]; ok {
		return sharedlog.ErrTaken
	}
	buf := make([]byte, l.entrySize)
	copy(buf, data)
	l.entries[position] = entry{data: buf}
	return nil
}

func (l *MemoryLog) Read(_ context.Context, position uint64) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[position]
	switch {
	case !ok:
		return nil, sharedlog.ErrUnwritten
	case e.invalid:
		return nil, sharedlog.ErrInvalidated
	}
	return append([]byte(nil), e.data...), nil
}

func (l *MemoryLog) Fill(_ context.Context, position uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[position]
	if ok && !e.invalid {
		return sharedlog.ErrWritten
	}
	l.entries[position] = entry{invalid: true}
	return nil
}
