package storageserver

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chn0318/stripelog/metrics"
	"github.com/chn0318/stripelog/objclass"
	"github.com/chn0318/stripelog/objstore"
	"github.com/chn0318/stripelog/proto/zlogpb"
)

// StorageServer dispatches ObjectClass requests to the method table. Requests
// against the same object are serialized: read-only methods share the object,
// mutating methods hold it exclusively.
type StorageServer struct {
	zlogpb.UnimplementedObjectClassServer
	store   objstore.Store
	methods map[string]objclass.Method
	locks   *objectLocks
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

func NewStorageServer(store objstore.Store, methods map[string]objclass.Method, m *metrics.Metrics, log logrus.FieldLogger) *StorageServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StorageServer{
		store:   store,
		methods: methods,
		locks:   newObjectLocks(),
		metrics: m,
		log:     log,
	}
}

func (s *StorageServer) Exec(ctx context.Context, req *zlogpb.ExecRequest) (*zlogpb.ExecReply, error) {
	if req.Object == "" {
		return nil, status.Error(codes.InvalidArgument, "object name is required")
	}
	m, ok := s.methods[req.Method]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "unknown method %q", req.Method)
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	log := s.log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"method":     m.Name,
		"object":     req.Object,
	})
	done := s.metrics.Begin(m.Name)
	label := "panic"
	defer func() { done(label) }()

	out, outcome, err := s.invoke(m, req.Object, req.Input)

	reply := &zlogpb.ExecReply{Status: outcome, Output: out}
	if err != nil {
		reply = &zlogpb.ExecReply{Status: objclass.Status(err), Output: []byte(err.Error())}
		if objclass.KindOf(err) == objclass.KindIO {
			log.WithError(err).Error("request failed")
		} else {
			log.WithError(err).Debug("request rejected")
		}
	}
	label = statusLabel(reply.Status)
	return reply, nil
}

// invoke runs m under the object's lock. The lock is released even if the
// handler panics.
func (s *StorageServer) invoke(m objclass.Method, object string, in []byte) ([]byte, int32, error) {
	unlock := s.locks.lock(object, m.Flags&objclass.FlagWrite == 0)
	defer unlock()
	return m.Handler(s.store.Object(object), in)
}

func statusLabel(st int32) string {
	if st >= 0 {
		return "ok"
	}
	return strings.ReplaceAll(objclass.Kind(-st).String(), " ", "_")
}
