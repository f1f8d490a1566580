// Package badgerstore is an objstore.Store persisted in BadgerDB.
//
// Object data is split into fixed-size chunks so that writing one entry slot
// only rewrites the chunks it touches. Chunks that were never written are
// absent and read back as zeros.
package badgerstore

import (
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chn0318/stripelog/objstore"
)

// DefaultChunkSize is used when Options.ChunkSize is zero.
const DefaultChunkSize = 64 * 1024

type Options struct {
	Dir        string
	ChunkSize  uint64
	SyncWrites bool
	// MaxObjectSize defaults to objstore.DefaultMaxObjectSize.
	MaxObjectSize uint64
	Logger        logrus.FieldLogger
}

type BadgerStore struct {
	db        *badgerdb.DB
	chunkSize uint64
	maxSize   uint64
}

// Open opens (or creates) a store rooted at opts.Dir.
func Open(opts Options) (*BadgerStore, error) {
	if opts.Dir == "" {
		return nil, errors.New("badgerstore: directory is required")
	}
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	maxSize := opts.MaxObjectSize
	if maxSize == 0 {
		maxSize = objstore.DefaultMaxObjectSize
	}

	bopts := badgerdb.DefaultOptions(opts.Dir).WithSyncWrites(opts.SyncWrites)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(opts.Logger.WithField("component", "badger"))
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, errors.Wrapf(err, "badgerstore: open %s", opts.Dir)
	}
	return &BadgerStore{db: db, chunkSize: chunkSize, maxSize: maxSize}, nil
}

func (s *BadgerStore) Object(name string) objstore.Object {
	return &handle{store: s, name: name}
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

type handle struct {
	store *BadgerStore
	name  string
}

func (h *handle) Name() string { return h.name }

func (h *handle) Stat() (uint64, error) {
	var size uint64
	err := h.store.db.View(func(txn *badgerdb.Txn) error {
		var err error
		size, err = h.size(txn)
		return err
	})
	return size, err
}

// size reads the header record; a missing header means a missing object.
func (h *handle) size(txn *badgerdb.Txn) (uint64, error) {
	item, err := txn.Get(keyHeader(h.name))
	if err == badgerdb.ErrKeyNotFound {
		return 0, errors.Wrapf(objstore.ErrNotFound, "object %q", h.name)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "stat %q", h.name)
	}
	var size uint64
	err = item.Value(func(val []byte) error {
		size, err = decodeSize(val)
		return err
	})
	if err != nil {
		return 0, errors.Wrapf(err, "stat %q", h.name)
	}
	return size, nil
}

// touch creates the header record if the object does not exist yet.
func (h *handle) touch(txn *badgerdb.Txn) (uint64, error) {
	size, err := h.size(txn)
	if objstore.IsNotFound(err) {
		return 0, txn.Set(keyHeader(h.name), encodeSize(0))
	}
	return size, err
}

func (h *handle) chunk(txn *badgerdb.Txn, index uint64) ([]byte, error) {
	buf := make([]byte, h.store.chunkSize)
	item, err := txn.Get(keyChunk(h.name, index))
	if err == badgerdb.ErrKeyNotFound {
		return buf, nil
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		copy(buf, val)
		return nil
	})
	return buf, err
}

func (h *handle) Read(offset, length uint64) ([]byte, error) {
	var out []byte
	err := h.store.db.View(func(txn *badgerdb.Txn) error {
		size, err := h.size(txn)
		if err != nil {
			return err
		}
		if offset >= size {
			out = []byte{}
			return nil
		}
		end := offset + length
		if end > size || end < offset {
			end = size
		}

		out = make([]byte, 0, end-offset)
		cs := h.store.chunkSize
		for pos := offset; pos < end; {
			index := pos / cs
			buf, err := h.chunk(txn, index)
			if err != nil {
				return errors.Wrapf(err, "read %q chunk %d", h.name, index)
			}
			start := pos - index*cs
			stop := cs
			if remain := end - index*cs; remain < stop {
				stop = remain
			}
			out = append(out, buf[start:stop]...)
			pos = index*cs + stop
		}
		return nil
	})
	return out, err
}

func (h *handle) Write(offset uint64, data []byte) error {
	if err := objstore.CheckWriteRange(offset, uint64(len(data)), h.store.maxSize); err != nil {
		return errors.Wrapf(err, "write %q", h.name)
	}
	return h.store.db.Update(func(txn *badgerdb.Txn) error {
		size, err := h.touch(txn)
		if err != nil {
			return err
		}

		cs := h.store.chunkSize
		end := offset + uint64(len(data))
		for pos := offset; pos < end; {
			index := pos / cs
			buf, err := h.chunk(txn, index)
			if err != nil {
				return errors.Wrapf(err, "write %q chunk %d", h.name, index)
			}
			n := copy(buf[pos-index*cs:], data[pos-offset:])
			if err := txn.Set(keyChunk(h.name, index), buf); err != nil {
				return errors.Wrapf(err, "write %q chunk %d", h.name, index)
			}
			pos += uint64(n)
		}

		if end > size {
			return txn.Set(keyHeader(h.name), encodeSize(end))
		}
		return nil
	})
}

func (h *handle) get(key []byte, what string) ([]byte, error) {
	var out []byte
	err := h.store.db.View(func(txn *badgerdb.Txn) error {
		if _, err := h.size(txn); err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err == badgerdb.ErrKeyNotFound {
			return errors.Wrapf(objstore.ErrNotFound, "%s on %q", what, h.name)
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (h *handle) set(key, value []byte) error {
	return h.store.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := h.touch(txn); err != nil {
			return err
		}
		return txn.Set(key, append([]byte(nil), value...))
	})
}

func (h *handle) GetXattr(key string) ([]byte, error) {
	return h.get(keyXattr(h.name, key), "xattr "+key)
}

func (h *handle) SetXattr(key string, value []byte) error {
	return h.set(keyXattr(h.name, key), value)
}

func (h *handle) OmapGet(key string) ([]byte, error) {
	return h.get(keyOmap(h.name, key), "omap key "+key)
}

func (h *handle) OmapSet(key string, value []byte) error {
	return h.set(keyOmap(h.name, key), value)
}
