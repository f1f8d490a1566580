package viewcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/stripelog/proto/zlogpb"
)

func TestApplyKeepsHighestEpoch(t *testing.T) {
	c := New()

	_, ok := c.Latest("log")
	assert.False(t, ok)

	v, ok := c.Apply("log", []zlogpb.View{{Epoch: 0, NumStripes: 1}, {Epoch: 2, NumStripes: 3}, {Epoch: 1, NumStripes: 2}})
	require.True(t, ok)
	assert.Equal(t, uint64(2), v.Epoch)

	v, _ = c.Apply("log", []zlogpb.View{{Epoch: 1, NumStripes: 9}})
	assert.Equal(t, uint32(3), v.NumStripes, "older epochs never replace a newer view")

	v, _ = c.Apply("log", []zlogpb.View{{Epoch: 5, NumStripes: 6}})
	assert.Equal(t, uint64(5), v.Epoch)

	_, ok = c.Latest("other")
	assert.False(t, ok)
}

func TestApplyEmpty(t *testing.T) {
	c := New()
	_, ok := c.Apply("log", nil)
	assert.False(t, ok)

	c.Apply("log", []zlogpb.View{{Epoch: 0}})
	c.Forget("log")
	_, ok = c.Latest("log")
	assert.False(t, ok)
}
