// Package objclass implements the log object class: the request handlers that
// run against a single storage object to initialize it, read, write and
// invalidate entry slots, and maintain the epoch ordered view records.
//
// Handlers are straight-line and hold no locks. The caller must serialize
// requests per object; the read-check-write sequences in Write and Invalidate
// are only write-once safe under that guarantee.
package objclass

import (
	"github.com/sirupsen/logrus"

	"github.com/chn0318/stripelog/objstore"
	"github.com/chn0318/stripelog/proto/zlogpb"
)

// Flags describe how a method touches its object.
type Flags uint8

const (
	FlagRead Flags = 1 << iota
	FlagWrite
)

// Handler runs one decoded request against obj. outcome is a non-negative,
// method specific status reported when err is nil.
type Handler func(obj objstore.Object, in []byte) (out []byte, outcome int32, err error)

// Method is one entry of the method table.
type Method struct {
	Name    string
	Flags   Flags
	Handler Handler
}

// Class is the log object class.
type Class struct {
	log logrus.FieldLogger
}

// New returns a Class logging through log. A nil log uses the logrus standard
// logger.
func New(log logrus.FieldLogger) *Class {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Class{log: log.WithField("class", "zlog")}
}

// Methods builds the method table. Data object methods are init, read, write
// and invalidate; log metadata object methods are view_init and view_read.
func (c *Class) Methods() map[string]Method {
	methods := []Method{
		{Name: "init", Flags: FlagRead | FlagWrite, Handler: c.handleInit},
		{Name: "read", Flags: FlagRead, Handler: c.handleRead},
		{Name: "write", Flags: FlagRead | FlagWrite, Handler: c.handleWrite},
		{Name: "invalidate", Flags: FlagRead | FlagWrite, Handler: c.handleInvalidate},
		{Name: "view_init", Flags: FlagRead | FlagWrite, Handler: c.handleViewInit},
		{Name: "view_read", Flags: FlagRead, Handler: c.handleViewRead},
	}

	table := make(map[string]Method, len(methods))
	for _, m := range methods {
		table[m.Name] = m
	}
	return table
}

func (c *Class) decode(op string, in []byte, m zlogpb.Message) error {
	if err := m.UnmarshalWire(in); err != nil {
		c.log.Errorf("%s: failed to decode input: %v", op, err)
		return &Error{Kind: KindInvalidArgument, Op: op, Msg: "decode input", Err: err}
	}
	return nil
}

func (c *Class) handleInit(obj objstore.Object, in []byte) ([]byte, int32, error) {
	var op zlogpb.InitOp
	if err := c.decode("init", in, &op); err != nil {
		return nil, 0, err
	}
	return nil, 0, c.Init(obj, op)
}

func (c *Class) handleRead(obj objstore.Object, in []byte) ([]byte, int32, error) {
	var op zlogpb.ReadOp
	if err := c.decode("read", in, &op); err != nil {
		return nil, 0, err
	}
	data, status, err := c.Read(obj, op.Position)
	return data, int32(status), err
}

func (c *Class) handleWrite(obj objstore.Object, in []byte) ([]byte, int32, error) {
	var op zlogpb.WriteOp
	if err := c.decode("write", in, &op); err != nil {
		return nil, 0, err
	}
	return nil, 0, c.Write(obj, op.Position, op.Data)
}

func (c *Class) handleInvalidate(obj objstore.Object, in []byte) ([]byte, int32, error) {
	var op zlogpb.InvalidateOp
	if err := c.decode("invalidate", in, &op); err != nil {
		return nil, 0, err
	}
	return nil, 0, c.Invalidate(obj, op.Position, op.Force)
}

func (c *Class) handleViewInit(obj objstore.Object, in []byte) ([]byte, int32, error) {
	var op zlogpb.ViewInitOp
	if err := c.decode("view_init", in, &op); err != nil {
		return nil, 0, err
	}
	return nil, 0, c.ViewInit(obj, op.NumStripes, op.Params)
}

func (c *Class) handleViewRead(obj objstore.Object, in []byte) ([]byte, int32, error) {
	var op zlogpb.ViewReadOp
	if err := c.decode("view_read", in, &op); err != nil {
		return nil, 0, err
	}
	views, err := c.ViewRead(obj, op.MinEpoch)
	if err != nil {
		return nil, 0, err
	}
	return zlogpb.Marshal(&zlogpb.ViewReadReply{Views: views}), 0, nil
}
