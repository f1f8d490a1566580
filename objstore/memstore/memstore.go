// Package memstore is an in-memory objstore.Store.
package memstore

import (
	"sync"

	"github.com/chn0318/stripelog/objstore"
	"github.com/pkg/errors"
)

type object struct {
	data   []byte
	xattrs map[string][]byte
	omap   map[string][]byte
}

type MemoryStore struct {
	objects map[string]*object
	mu      sync.RWMutex
	maxSize uint64
}

type Option func(*MemoryStore)

// WithMaxObjectSize caps object sizes; writes ending past n fail with
// objstore.ErrOutOfRange.
func WithMaxObjectSize(n uint64) Option {
	return func(s *MemoryStore) { s.maxSize = n }
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		objects: make(map[string]*object),
		maxSize: objstore.DefaultMaxObjectSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Object(name string) objstore.Object {
	return &handle{store: s, name: name}
}

func (s *MemoryStore) Close() error { return nil }

// lookup returns the named object; create makes it on demand.
// Callers must hold s.mu.
func (s *MemoryStore) lookup(name string, create bool) (*object, error) {
	o, ok := s.objects[name]
	if ok {
		return o, nil
	}
	if !create {
		return nil, errors.Wrapf(objstore.ErrNotFound, "object %q", name)
	}
	o = &object{
		xattrs: make(map[string][]byte),
		omap:   make(map[string][]byte),
	}
	s.objects[name] = o
	return o, nil
}

type handle struct {
	store *MemoryStore
	name  string
}

func (h *handle) Name() string { return h.name }

func (h *handle) Stat() (uint64, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	o, err := h.store.lookup(h.name, false)
	if err != nil {
		return 0, err
	}
	return uint64(len(o.data)), nil
}

func (h *handle) Read(offset, length uint64) ([]byte, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	o, err := h.store.lookup(h.name, false)
	if err != nil {
		return nil, err
	}
	size := uint64(len(o.data))
	if offset >= size {
		return []byte{}, nil
	}
	end := offset + length
	if end > size || end < offset {
		end = size
	}
	return append([]byte(nil), o.data[offset:end]...), nil
}

func (h *handle) Write(offset uint64, data []byte) error {
	if err := objstore.CheckWriteRange(offset, uint64(len(data)), h.store.maxSize); err != nil {
		return errors.Wrapf(err, "write %q", h.name)
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	o, _ := h.store.lookup(h.name, true)
	end := offset + uint64(len(data))
	if end > uint64(len(o.data)) {
		grown := make([]byte, end)
		copy(grown, o.data)
		o.data = grown
	}
	copy(o.data[offset:], data)
	return nil
}

func (h *handle) GetXattr(key string) ([]byte, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	o, err := h.store.lookup(h.name, false)
	if err != nil {
		return nil, err
	}
	v, ok := o.xattrs[key]
	if !ok {
		return nil, errors.Wrapf(objstore.ErrNotFound, "xattr %q on %q", key, h.name)
	}
	return append([]byte(nil), v...), nil
}

func (h *handle) SetXattr(key string, value []byte) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	o, _ := h.store.lookup(h.name, true)
	o.xattrs[key] = append([]byte(nil), value...)
	return nil
}

func (h *handle) OmapGet(key string) ([]byte, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	o, err := h.store.lookup(h.name, false)
	if err != nil {
		return nil, err
	}
	v, ok := o.omap[key]
	if !ok {
		return nil, errors.Wrapf(objstore.ErrNotFound, "omap key %q on %q", key, h.name)
	}
	return append([]byte(nil), v...), nil
}

func (h *handle) OmapSet(key string, value []byte) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	o, _ := h.store.lookup(h.name, true)
	o.omap[key] = append([]byte(nil), value...)
	return nil
}
