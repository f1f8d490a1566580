package storageserver

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/chn0318/stripelog/metrics"
	"github.com/chn0318/stripelog/objclass"
	"github.com/chn0318/stripelog/objstore"
	"github.com/chn0318/stripelog/objstore/memstore"
	"github.com/chn0318/stripelog/proto/zlogpb"
	"github.com/chn0318/stripelog/storageclient"
)

var params = zlogpb.StripingParams{EntrySize: 16, StripeWidth: 4, EntriesPerObject: 8}

type testEnv struct {
	client *storageclient.Client
	rpc    zlogpb.ObjectClassClient
	reg    *prometheus.Registry
	hook   *logtest.Hook
}

func startServer(t *testing.T) *testEnv {
	t.Helper()
	return startServerWith(t, nil)
}

// startServerWith serves the object class methods plus extra.
func startServerWith(t *testing.T, extra []objclass.Method) *testEnv {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	reg := prometheus.NewRegistry()

	methods := objclass.New(logger).Methods()
	for _, m := range extra {
		methods[m.Name] = m
	}

	srv := NewStorageServer(memstore.NewMemoryStore(), methods, metrics.New(reg), logger)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(RecoveryInterceptor(logger)))
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

	return &testEnv{
		client: storageclient.New(conn),
		rpc:    zlogpb.NewObjectClassClient(conn),
		reg:    reg,
		hook:   hook,
	}
}

func TestEntryLifecycle(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()
	c := env.client

	require.NoError(t, c.Init(ctx, "log.1", params, 1))
	require.NoError(t, c.Init(ctx, "log.1", params, 1))
	assert.ErrorIs(t, c.Init(ctx, "log.1", params, 2), objclass.ErrMismatch)

	require.NoError(t, c.Write(ctx, "log.1", 5, []byte("hello")))
	err := c.Write(ctx, "log.1", 5, []byte("again"))
	assert.ErrorIs(t, err, objclass.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "position 5")

	data, st, err := c.Read(ctx, "log.1", 5)
	require.NoError(t, err)
	assert.Equal(t, zlogpb.ReadOK, st)
	assert.Equal(t, "hello", string(data[:5]))
	assert.Len(t, data, int(params.EntrySize))

	_, st, err = c.Read(ctx, "log.1", 9)
	require.NoError(t, err)
	assert.Equal(t, zlogpb.ReadUnwritten, st)

	assert.ErrorIs(t, c.Invalidate(ctx, "log.1", 5, false), objclass.ErrReadOnly)
	require.NoError(t, c.Invalidate(ctx, "log.1", 5, true))
	_, st, err = c.Read(ctx, "log.1", 5)
	require.NoError(t, err)
	assert.Equal(t, zlogpb.ReadInvalid, st)

	assert.ErrorIs(t, c.Write(ctx, "log.1", 6, []byte("x")), objclass.ErrWrongTarget)
	assert.ErrorIs(t, c.Write(ctx, "log.1", 9, make([]byte, 17)), objclass.ErrTooLarge)

	_, _, err = c.Read(ctx, "log.2", 2)
	assert.ErrorIs(t, err, objclass.ErrNotFound)
}

func TestViews(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()
	c := env.client

	_, err := c.ViewRead(ctx, "log.head", 0)
	assert.ErrorIs(t, err, objclass.ErrNotFound)

	require.NoError(t, c.ViewInit(ctx, "log.head", 2, params))
	assert.ErrorIs(t, c.ViewInit(ctx, "log.head", 2, params), objclass.ErrAlreadyExists)
	assert.ErrorIs(t, c.ViewInit(ctx, "other.head", 0, params), objclass.ErrInvalidArgument)

	views, err := c.ViewRead(ctx, "log.head", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, zlogpb.View{Epoch: 0, NumStripes: 2, Params: params}, views[0])

	_, err = c.ViewRead(ctx, "log.head", 1)
	assert.ErrorIs(t, err, objclass.ErrInvalidArgument)
}

func TestUnknownMethod(t *testing.T) {
	env := startServer(t)

	_, err := env.rpc.Exec(context.Background(), &zlogpb.ExecRequest{Object: "log.0", Method: "trim"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	_, err = env.rpc.Exec(context.Background(), &zlogpb.ExecRequest{Method: "read"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestBadInputIsInvalidArgument(t *testing.T) {
	env := startServer(t)

	reply, err := env.rpc.Exec(context.Background(), &zlogpb.ExecRequest{
		Object: "log.0",
		Method: "write",
		Input:  []byte{0x12, 0x05},
	})
	require.NoError(t, err)
	assert.Equal(t, -int32(objclass.KindInvalidArgument), reply.Status)
}

func TestConcurrentWritersOneWins(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()
	require.NoError(t, env.client.Init(ctx, "log.0", params, 0))

	const writers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		refused int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := env.client.Write(ctx, "log.0", 0, []byte{byte(i)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case objclass.KindOf(err) == objclass.KindAlreadyExists:
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, writers-1, refused)
}

func TestMetricsAndLogging(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	require.NoError(t, env.client.Init(ctx, "log.0", params, 0))
	_, _, err := env.client.Read(ctx, "log.0", 0)
	require.NoError(t, err)
	_ = env.client.Write(ctx, "log.0", 1, []byte("x"))

	// init/ok, read/ok, write/wrong_target
	n, err := testutil.GatherAndCount(env.reg, "stripelog_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var rejected *logrus.Entry
	for _, e := range env.hook.AllEntries() {
		if e.Message == "request rejected" {
			rejected = e
		}
	}
	require.NotNil(t, rejected)
	assert.Equal(t, "write", rejected.Data["method"])
	assert.NotEmpty(t, rejected.Data["request_id"])
}

func TestObjectLocksRelease(t *testing.T) {
	l := newObjectLocks()

	unlockA := l.lock("a", true)
	unlockB := l.lock("a", true)
	assert.Len(t, l.locks, 1)
	unlockA()
	unlockB()
	assert.Empty(t, l.locks)

	unlock := l.lock("b", false)
	unlock()
	assert.Empty(t, l.locks)
}

func TestWritePastObjectSizeLimit(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	wide := zlogpb.StripingParams{EntrySize: 1 << 20, StripeWidth: 1, EntriesPerObject: 1<<32 - 1}
	require.NoError(t, env.client.Init(ctx, "log.0", wide, 0))

	err := env.client.Write(ctx, "log.0", 1<<31, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, objclass.ErrIO)

	_, st, err := env.client.Read(ctx, "log.0", 1<<31)
	require.NoError(t, err)
	assert.Equal(t, zlogpb.ReadUnwritten, st)
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	env := startServerWith(t, []objclass.Method{{
		Name:  "explode",
		Flags: objclass.FlagRead | objclass.FlagWrite,
		Handler: func(objstore.Object, []byte) ([]byte, int32, error) {
			panic("boom")
		},
	}})
	ctx := context.Background()

	_, err := env.rpc.Exec(ctx, &zlogpb.ExecRequest{Object: "log.0", Method: "explode"})
	assert.Equal(t, codes.Internal, status.Code(err))

	var logged bool
	for _, e := range env.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["panic"] == "boom" {
			logged = true
		}
	}
	assert.True(t, logged, "panic must be logged")

	// the object lock was released and the server keeps serving
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, env.client.Init(ctx, "log.0", params, 0))
}
