// Package logtest checks that a SharedLog implementation honors write-once
// and fill semantics.
package logtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/stripelog/sharedlog"
)

// EntrySize is the entry size factories must configure.
const EntrySize = 32

type LogFactory func(t *testing.T) sharedlog.SharedLog

func RunSuite(t *testing.T, factory LogFactory) {
	t.Helper()

	t.Run("WriteOnce", func(t *testing.T) { testWriteOnce(t, factory(t)) })
	t.Run("Unwritten", func(t *testing.T) { testUnwritten(t, factory(t)) })
	t.Run("Fill", func(t *testing.T) { testFill(t, factory(t)) })
	t.Run("ManyPositions", func(t *testing.T) { testManyPositions(t, factory(t)) })
}

func testWriteOnce(t *testing.T, l sharedlog.SharedLog) {
	ctx := context.Background()

	require.NoError(t, l.Write(ctx, 0, []byte("x")))
	assert.ErrorIs(t, l.Write(ctx, 0, []byte("y")), sharedlog.ErrTaken)

	data, err := l.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, data, EntrySize)
	assert.Equal(t, byte('x'), data[0])
}

func testUnwritten(t *testing.T, l sharedlog.SharedLog) {
	ctx := context.Background()

	_, err := l.Read(ctx, 0)
	assert.ErrorIs(t, err, sharedlog.ErrUnwritten)

	require.NoError(t, l.Write(ctx, 100, []byte("far")))
	_, err = l.Read(ctx, 99)
	assert.ErrorIs(t, err, sharedlog.ErrUnwritten)
}

func testFill(t *testing.T, l sharedlog.SharedLog) {
	ctx := context.Background()

	require.NoError(t, l.Write(ctx, 1, []byte("data")))
	assert.ErrorIs(t, l.Fill(ctx, 1), sharedlog.ErrWritten)

	require.NoError(t, l.Fill(ctx, 2))
	require.NoError(t, l.Fill(ctx, 2))
	_, err := l.Read(ctx, 2)
	assert.ErrorIs(t, err, sharedlog.ErrInvalidated)
	assert.ErrorIs(t, l.Write(ctx, 2, []byte("late")), sharedlog.ErrTaken)
}

func testManyPositions(t *testing.T, l sharedlog.SharedLog) {
	ctx := context.Background()

	for pos := uint64(0); pos < 40; pos++ {
		require.NoError(t, l.Write(ctx, pos, []byte{byte(pos), 0xab}), "position %d", pos)
	}
	for pos := uint64(0); pos < 40; pos++ {
		data, err := l.Read(ctx, pos)
		require.NoError(t, err, "position %d", pos)
		assert.Equal(t, []byte{byte(pos), 0xab}, data[:2], "position %d", pos)
	}
}
