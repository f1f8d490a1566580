package zlogpb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestObjectMetaEncoding(t *testing.T) {
	in := ObjectMeta{
		Params:   StripingParams{EntrySize: 1024, StripeWidth: 8, EntriesPerObject: 4096},
		ObjectID: 17,
	}

	var out ObjectMeta
	require.NoError(t, Unmarshal(Marshal(&in), &out))
	assert.Equal(t, in, out)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := protowire.AppendTag(nil, 9, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = (&ReadOp{Position: 42}).AppendWire(b)
	b = protowire.AppendTag(b, 10, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 7)

	var op ReadOp
	require.NoError(t, op.UnmarshalWire(b))
	assert.Equal(t, uint64(42), op.Position)
}

func TestTruncatedInputFails(t *testing.T) {
	b := Marshal(&WriteOp{Position: 3, Data: []byte("payload")})

	var op WriteOp
	assert.Error(t, op.UnmarshalWire(b[:len(b)-2]))
}

func TestWrongWireTypeFails(t *testing.T) {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("x"))

	var op ReadOp
	err := op.UnmarshalWire(b)
	require.Error(t, err)
	assert.Equal(t, "field 1: unexpected wire type 2", err.Error())
	// errors carry the call stack
	assert.Contains(t, fmt.Sprintf("%+v", err), "wire.go")
}

func TestUint32Overflow(t *testing.T) {
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 1<<33)

	var p StripingParams
	assert.Error(t, p.UnmarshalWire(b))
}

func TestEmptyInputDecodesZero(t *testing.T) {
	var v View
	require.NoError(t, v.UnmarshalWire(nil))
	assert.Equal(t, View{}, v)
}

func TestExecReplyNegativeStatus(t *testing.T) {
	var out ExecReply
	require.NoError(t, Unmarshal(Marshal(&ExecReply{Status: -5, Output: []byte{1}}), &out))
	assert.Equal(t, int32(-5), out.Status)
	assert.Equal(t, []byte{1}, out.Output)
}

func TestViewReadReplyKeepsOrder(t *testing.T) {
	in := ViewReadReply{Views: []View{
		{Epoch: 0, NumStripes: 1, Params: StripingParams{EntrySize: 1, StripeWidth: 1, EntriesPerObject: 1}},
		{Epoch: 1, NumStripes: 2, Params: StripingParams{EntrySize: 2, StripeWidth: 2, EntriesPerObject: 2}},
	}}

	var out ViewReadReply
	require.NoError(t, Unmarshal(Marshal(&in), &out))
	assert.Equal(t, in, out)
}
