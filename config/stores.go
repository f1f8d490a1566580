package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chn0318/stripelog/objstore"
	"github.com/chn0318/stripelog/objstore/badgerstore"
	"github.com/chn0318/stripelog/objstore/memstore"
)

// OpenStore builds the object store backend described by b.
func (b BackendConfig) OpenStore(log logrus.FieldLogger) (objstore.Store, error) {
	maxSize, err := b.MaxObjectSizeBytes()
	if err != nil {
		return nil, err
	}

	switch b.Type {
	case "memory":
		return memstore.NewMemoryStore(memstore.WithMaxObjectSize(maxSize)), nil
	case "badger":
		chunkSize, err := b.ChunkSizeBytes()
		if err != nil {
			return nil, err
		}
		return badgerstore.Open(badgerstore.Options{
			Dir:           b.Dir,
			ChunkSize:     chunkSize,
			SyncWrites:    b.SyncWrites,
			MaxObjectSize: maxSize,
			Logger:        log,
		})
	default:
		return nil, errors.Errorf("unknown backend type %q", b.Type)
	}
}
