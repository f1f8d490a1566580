// Package storageclient is a typed client for the ObjectClass service.
package storageclient

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/chn0318/stripelog/objclass"
	"github.com/chn0318/stripelog/proto/zlogpb"
)

// Client issues object class methods against named storage objects. Handler
// failures come back as *objclass.Error values; transport failures are
// returned wrapped.
type Client struct {
	rpc zlogpb.ObjectClassClient
}

func New(cc grpc.ClientConnInterface) *Client {
	return &Client{rpc: zlogpb.NewObjectClassClient(cc)}
}

// Dial connects to addr without transport security unless opts say
// otherwise. The caller closes the returned connection.
func Dial(addr string, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dial %s", addr)
	}
	return New(conn), conn, nil
}

func (c *Client) exec(ctx context.Context, object, method string, in zlogpb.Message) (*zlogpb.ExecReply, error) {
	reply, err := c.rpc.Exec(ctx, &zlogpb.ExecRequest{
		Object: object,
		Method: method,
		Input:  zlogpb.Marshal(in),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, object)
	}
	if err := objclass.FromStatus(reply.Status, string(reply.Output)); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) Init(ctx context.Context, object string, params zlogpb.StripingParams, objectID uint64) error {
	_, err := c.exec(ctx, object, "init", &zlogpb.InitOp{Params: params, ObjectID: objectID})
	return err
}

// Read returns the entry payload when status is ReadOK.
func (c *Client) Read(ctx context.Context, object string, position uint64) ([]byte, zlogpb.ReadStatus, error) {
	reply, err := c.exec(ctx, object, "read", &zlogpb.ReadOp{Position: position})
	if err != nil {
		return nil, 0, err
	}
	st := zlogpb.ReadStatus(reply.Status)
	if st != zlogpb.ReadOK {
		return nil, st, nil
	}
	return reply.Output, st, nil
}

func (c *Client) Write(ctx context.Context, object string, position uint64, data []byte) error {
	_, err := c.exec(ctx, object, "write", &zlogpb.WriteOp{Position: position, Data: data})
	return err
}

func (c *Client) Invalidate(ctx context.Context, object string, position uint64, force bool) error {
	_, err := c.exec(ctx, object, "invalidate", &zlogpb.InvalidateOp{Position: position, Force: force})
	return err
}

func (c *Client) ViewInit(ctx context.Context, object string, numStripes uint32, params zlogpb.StripingParams) error {
	_, err := c.exec(ctx, object, "view_init", &zlogpb.ViewInitOp{NumStripes: numStripes, Params: params})
	return err
}

func (c *Client) ViewRead(ctx context.Context, object string, minEpoch uint64) ([]zlogpb.View, error) {
	reply, err := c.exec(ctx, object, "view_read", &zlogpb.ViewReadOp{MinEpoch: minEpoch})
	if err != nil {
		return nil, err
	}
	var out zlogpb.ViewReadReply
	if err := out.UnmarshalWire(reply.Output); err != nil {
		return nil, &objclass.Error{Kind: objclass.KindCorrupt, Op: "view_read", Msg: "decode reply", Err: err}
	}
	return out.Views, nil
}
