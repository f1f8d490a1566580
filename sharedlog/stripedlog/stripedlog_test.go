package stripedlog

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/chn0318/stripelog/objclass"
	"github.com/chn0318/stripelog/objstore"
	"github.com/chn0318/stripelog/objstore/memstore"
	"github.com/chn0318/stripelog/proto/zlogpb"
	"github.com/chn0318/stripelog/sharedlog"
	"github.com/chn0318/stripelog/sharedlog/logtest"
	"github.com/chn0318/stripelog/storageclient"
	"github.com/chn0318/stripelog/storageserver"
	"github.com/chn0318/stripelog/viewcache"
)

var params = zlogpb.StripingParams{EntrySize: logtest.EntrySize, StripeWidth: 3, EntriesPerObject: 4}

func newClient(t *testing.T, store objstore.Store) *storageclient.Client {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := storageserver.NewStorageServer(store, objclass.New(logger).Methods(), nil, logger)
	grpcServer := grpc.NewServer()
	zlogpb.RegisterObjectClassServer(grpcServer, srv)

	lis := bufconn.Listen(1 << 20)
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return storageclient.New(conn)
}

func TestSuite(t *testing.T) {
	logtest.RunSuite(t, func(t *testing.T) sharedlog.SharedLog {
		client := newClient(t, memstore.NewMemoryStore())
		l, err := Create(context.Background(), client, "log", 2, params)
		require.NoError(t, err)
		return l
	})
}

func TestEntriesLandInStripedObjects(t *testing.T) {
	store := memstore.NewMemoryStore()
	client := newClient(t, store)
	ctx := context.Background()

	l, err := Create(ctx, client, "log", 2, params)
	require.NoError(t, err)

	// 3 objects per set, 4 stripes per object: position 12 opens object 3
	for _, pos := range []uint64{0, 1, 2, 3, 12} {
		require.NoError(t, l.Write(ctx, pos, []byte("e")))
	}

	for _, objectNo := range []uint64{0, 1, 2, 3} {
		_, err := store.Object(sharedlog.ObjectName("log", objectNo)).Stat()
		assert.NoError(t, err, "object %d", objectNo)
	}
	_, err = store.Object(sharedlog.ObjectName("log", 4)).Stat()
	assert.True(t, objstore.IsNotFound(err))

	size, err := store.Object("log.0").Stat()
	require.NoError(t, err)
	assert.Equal(t, uint64(2*(logtest.EntrySize+1)), size, "positions 0 and 3 share object 0")
}

func TestCreateTwice(t *testing.T) {
	client := newClient(t, memstore.NewMemoryStore())
	ctx := context.Background()

	_, err := Create(ctx, client, "log", 1, params)
	require.NoError(t, err)
	_, err = Create(ctx, client, "log", 1, params)
	assert.ErrorIs(t, err, objclass.ErrAlreadyExists)
}

func TestOpenMissingLog(t *testing.T) {
	client := newClient(t, memstore.NewMemoryStore())
	_, err := Open(context.Background(), client, "nope")
	assert.ErrorIs(t, err, objclass.ErrNotFound)
}

func TestOpenSharesViews(t *testing.T) {
	client := newClient(t, memstore.NewMemoryStore())
	ctx := context.Background()
	cache := viewcache.New()

	_, err := Create(ctx, client, "log", 5, params, WithViewCache(cache))
	require.NoError(t, err)

	l, err := Open(ctx, client, "log", WithViewCache(cache))
	require.NoError(t, err)
	assert.Equal(t, uint32(5), l.View().NumStripes)

	v, ok := cache.Latest("log")
	require.True(t, ok)
	assert.Equal(t, params, v.Params)
}

func TestRefreshPicksUpNewEpoch(t *testing.T) {
	store := memstore.NewMemoryStore()
	client := newClient(t, store)
	ctx := context.Background()

	l, err := Create(ctx, client, "log", 1, params)
	require.NoError(t, err)

	next := zlogpb.View{Epoch: 1, NumStripes: 2, Params: params}
	require.NoError(t, store.Object(sharedlog.HeadObject("log")).OmapSet(objclass.ViewKey(1), zlogpb.Marshal(&next)))

	v, err := l.RefreshView(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Epoch)
	assert.Equal(t, uint64(1), l.View().Epoch)
}

func TestForgottenViewIsReloaded(t *testing.T) {
	client := newClient(t, memstore.NewMemoryStore())
	ctx := context.Background()
	cache := viewcache.New()

	l, err := Create(ctx, client, "log", 2, params, WithViewCache(cache))
	require.NoError(t, err)
	require.NoError(t, l.Write(ctx, 7, []byte("seven")))

	cache.Forget("log")
	data, err := l.Read(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "seven", string(data[:5]))

	cache.Forget("log")
	require.NoError(t, l.Write(ctx, 8, []byte("eight")))
	cache.Forget("log")
	require.NoError(t, l.Fill(ctx, 9))

	v, ok := cache.Latest("log")
	require.True(t, ok)
	assert.Equal(t, params, v.Params)
}
