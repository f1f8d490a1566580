// Package storetest holds the conformance suite every objstore.Store
// implementation must pass.
package storetest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/stripelog/objstore"
)

// StoreFactory returns a fresh, empty store for each subtest.
type StoreFactory func(t *testing.T) objstore.Store

func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("MissingObject", func(t *testing.T) { testMissingObject(t, factory(t)) })
	t.Run("WriteRead", func(t *testing.T) { testWriteRead(t, factory(t)) })
	t.Run("ZeroFilledHoles", func(t *testing.T) { testZeroFilledHoles(t, factory(t)) })
	t.Run("ShortReadAtEnd", func(t *testing.T) { testShortReadAtEnd(t, factory(t)) })
	t.Run("Xattrs", func(t *testing.T) { testXattrs(t, factory(t)) })
	t.Run("Omap", func(t *testing.T) { testOmap(t, factory(t)) })
	t.Run("ObjectsAreIsolated", func(t *testing.T) { testObjectsAreIsolated(t, factory(t)) })
	t.Run("WriteOutOfRange", func(t *testing.T) { testWriteOutOfRange(t, factory(t)) })
}

func testMissingObject(t *testing.T, s objstore.Store) {
	obj := s.Object("missing")

	_, err := obj.Stat()
	assert.True(t, objstore.IsNotFound(err), "stat: %v", err)

	_, err = obj.Read(0, 1)
	assert.True(t, objstore.IsNotFound(err), "read: %v", err)

	_, err = obj.GetXattr("meta")
	assert.True(t, objstore.IsNotFound(err), "getxattr: %v", err)

	_, err = obj.OmapGet("k")
	assert.True(t, objstore.IsNotFound(err), "omap get: %v", err)
}

func testWriteRead(t *testing.T, s objstore.Store) {
	obj := s.Object("obj")
	require.NoError(t, obj.Write(0, []byte("hello world")))
	require.NoError(t, obj.Write(6, []byte("WORLD")))

	size, err := obj.Stat()
	require.NoError(t, err)
	assert.Equal(t, uint64(11), size)

	got, err := obj.Read(0, 11)
	require.NoError(t, err)
	assert.Equal(t, "hello WORLD", string(got))

	got, err = obj.Read(6, 3)
	require.NoError(t, err)
	assert.Equal(t, "WOR", string(got))
}

func testZeroFilledHoles(t *testing.T, s objstore.Store) {
	obj := s.Object("holes")
	// span more than one badger chunk
	const off = 200 * 1024
	require.NoError(t, obj.Write(off, []byte{0xff, 0xfe}))

	size, err := obj.Stat()
	require.NoError(t, err)
	assert.Equal(t, uint64(off+2), size)

	got, err := obj.Read(0, off+2)
	require.NoError(t, err)
	require.Len(t, got, off+2)
	assert.True(t, bytes.Equal(make([]byte, off), got[:off]))
	assert.Equal(t, []byte{0xff, 0xfe}, got[off:])
}

func testShortReadAtEnd(t *testing.T, s objstore.Store) {
	obj := s.Object("short")
	require.NoError(t, obj.Write(0, []byte("abc")))

	got, err := obj.Read(1, 10)
	require.NoError(t, err)
	assert.Equal(t, "bc", string(got))

	got, err = obj.Read(3, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testXattrs(t *testing.T, s objstore.Store) {
	obj := s.Object("attrs")
	require.NoError(t, obj.SetXattr("meta", []byte("v1")))

	size, err := obj.Stat()
	require.NoError(t, err, "setxattr must create the object")
	assert.Equal(t, uint64(0), size)

	got, err := obj.GetXattr("meta")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	_, err = obj.GetXattr("other")
	assert.True(t, objstore.IsNotFound(err))

	require.NoError(t, obj.SetXattr("meta", []byte("v2")))
	got, err = obj.GetXattr("meta")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func testOmap(t *testing.T, s objstore.Store) {
	obj := s.Object("omap")
	require.NoError(t, obj.OmapSet("view.epoch.0", []byte("a")))
	require.NoError(t, obj.OmapSet("view.epoch.1", []byte("b")))

	_, err := obj.Stat()
	require.NoError(t, err, "omap set must create the object")

	got, err := obj.OmapGet("view.epoch.1")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))

	_, err = obj.OmapGet("view.epoch.2")
	assert.True(t, objstore.IsNotFound(err))
}

func testObjectsAreIsolated(t *testing.T, s objstore.Store) {
	a, b := s.Object("log.1"), s.Object("log.10")
	require.NoError(t, a.Write(0, []byte("aaaa")))
	require.NoError(t, a.SetXattr("meta", []byte("a")))

	_, err := b.Stat()
	assert.True(t, objstore.IsNotFound(err))

	require.NoError(t, b.Write(0, []byte("bb")))
	got, err := a.Read(0, 4)
	require.NoError(t, err)
	assert.Equal(t, "aaaa", string(got))

	_, err = b.GetXattr("meta")
	assert.True(t, objstore.IsNotFound(err))
}

func testWriteOutOfRange(t *testing.T, s objstore.Store) {
	obj := s.Object("huge")
	require.NoError(t, obj.Write(0, []byte("ab")))

	tests := []struct {
		name   string
		offset uint64
	}{
		{"past size limit", 1 << 51},
		{"wraps offset space", ^uint64(0) - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := obj.Write(tt.offset, []byte("xyz"))
			require.Error(t, err)
			assert.ErrorIs(t, err, objstore.ErrOutOfRange)
			assert.False(t, objstore.IsNotFound(err))

			size, err := obj.Stat()
			require.NoError(t, err)
			assert.Equal(t, uint64(2), size, "rejected write must not grow the object")
		})
	}
}
