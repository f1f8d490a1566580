package zlogpb

import (
	"github.com/pkg/errors"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype under which the wire codec is
// registered.
const CodecName = "zlogwire"

type codec struct{}

func init() {
	encoding.RegisterCodec(codec{})
}

func (codec) Name() string { return CodecName }

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, errors.Errorf("zlogwire: cannot marshal %T", v)
	}
	return m.AppendWire(nil), nil
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return errors.Errorf("zlogwire: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}
