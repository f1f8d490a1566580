package objclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/stripelog/proto/zlogpb"
)

func TestMethodTable(t *testing.T) {
	c, _ := newTestClass(t)
	methods := c.Methods()

	require.Len(t, methods, 6)
	for name, flags := range map[string]Flags{
		"init":       FlagRead | FlagWrite,
		"read":       FlagRead,
		"write":      FlagRead | FlagWrite,
		"invalidate": FlagRead | FlagWrite,
		"view_init":  FlagRead | FlagWrite,
		"view_read":  FlagRead,
	} {
		m, ok := methods[name]
		require.True(t, ok, name)
		assert.Equal(t, name, m.Name)
		assert.Equal(t, flags, m.Flags, name)
	}
}

func TestHandlersRoundTrip(t *testing.T) {
	c, _ := newTestClass(t)
	methods := c.Methods()
	obj := newObject("log.1")

	_, _, err := methods["init"].Handler(obj, zlogpb.Marshal(&zlogpb.InitOp{Params: testParams, ObjectID: 1}))
	require.NoError(t, err)

	_, _, err = methods["write"].Handler(obj, zlogpb.Marshal(&zlogpb.WriteOp{Position: 1, Data: []byte("hi")}))
	require.NoError(t, err)

	out, outcome, err := methods["read"].Handler(obj, zlogpb.Marshal(&zlogpb.ReadOp{Position: 1}))
	require.NoError(t, err)
	assert.Equal(t, int32(zlogpb.ReadOK), outcome)
	assert.Equal(t, "hi", string(out[:2]))

	_, outcome, err = methods["read"].Handler(obj, zlogpb.Marshal(&zlogpb.ReadOp{Position: 5}))
	require.NoError(t, err)
	assert.Equal(t, int32(zlogpb.ReadUnwritten), outcome)

	_, _, err = methods["invalidate"].Handler(obj, zlogpb.Marshal(&zlogpb.InvalidateOp{Position: 1}))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestViewHandlers(t *testing.T) {
	c, _ := newTestClass(t)
	methods := c.Methods()
	obj := newObject("log.head")

	_, _, err := methods["view_init"].Handler(obj, zlogpb.Marshal(&zlogpb.ViewInitOp{NumStripes: 2, Params: testParams}))
	require.NoError(t, err)

	out, _, err := methods["view_read"].Handler(obj, zlogpb.Marshal(&zlogpb.ViewReadOp{}))
	require.NoError(t, err)

	var reply zlogpb.ViewReadReply
	require.NoError(t, zlogpb.Unmarshal(out, &reply))
	require.Len(t, reply.Views, 1)
	assert.Equal(t, uint32(2), reply.Views[0].NumStripes)
}

func TestHandlerRejectsUndecodableInput(t *testing.T) {
	c, _ := newTestClass(t)
	obj := newObject("log.0")

	for name, m := range c.Methods() {
		_, _, err := m.Handler(obj, []byte{0x0a, 0xff, 0xff})
		assert.ErrorIs(t, err, ErrInvalidArgument, name)
	}
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, int32(0), Status(nil))
	assert.Equal(t, -int32(KindTooLarge), Status(newError(KindTooLarge, "write", "big")))
	assert.Equal(t, -int32(KindIO), Status(assert.AnError))

	err := FromStatus(-int32(KindReadOnly), "invalidate: read only")
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.NotErrorIs(t, err, ErrCorrupt)
	assert.NoError(t, FromStatus(int32(zlogpb.ReadInvalid), ""))
}
