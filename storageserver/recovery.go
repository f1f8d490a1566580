package storageserver

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryInterceptor turns a panicking handler into a codes.Internal reply
// so that one bad request does not take the server down.
func RecoveryInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"grpc_method": info.FullMethod,
					"panic":       r,
					"stack":       string(debug.Stack()),
				}).Error("handler panicked")
				resp, err = nil, status.Errorf(codes.Internal, "internal error in %s", info.FullMethod)
			}
		}()
		return handler(ctx, req)
	}
}
