package badgerstore

import (
	"testing"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/stripelog/objstore"
)

func TestDecodeSize(t *testing.T) {
	size, err := decodeSize(encodeSize(1234))
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), size)

	_, err = decodeSize([]byte{1, 2, 3})
	assert.ErrorIs(t, err, errBadSize)
}

func TestMalformedSizeRecord(t *testing.T) {
	store, err := Open(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyHeader("obj"), []byte{0, 1})
	}))

	obj := store.Object("obj")
	_, err = obj.Stat()
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadSize)
	assert.False(t, objstore.IsNotFound(err))

	_, err = obj.Read(0, 1)
	assert.ErrorIs(t, err, errBadSize)
	assert.ErrorIs(t, obj.Write(0, []byte("x")), errBadSize)
}
