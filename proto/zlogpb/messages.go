package zlogpb

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// ReadStatus is the non-error outcome of a read.
type ReadStatus int32

const (
	ReadOK        ReadStatus = 0
	ReadUnwritten ReadStatus = 1
	ReadInvalid   ReadStatus = 2
)

func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "OK"
	case ReadUnwritten:
		return "UNWRITTEN"
	case ReadInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

type StripingParams struct {
	EntrySize        uint32
	StripeWidth      uint32
	EntriesPerObject uint32
}

func (m *StripingParams) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.EntrySize))
	b = appendVarint(b, 2, uint64(m.StripeWidth))
	b = appendVarint(b, 3, uint64(m.EntriesPerObject))
	return b
}

func (m *StripingParams) UnmarshalWire(b []byte) error {
	*m = StripingParams{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.EntrySize)
		case 2:
			return consumeUint32(typ, b, &m.StripeWidth)
		case 3:
			return consumeUint32(typ, b, &m.EntriesPerObject)
		}
		return 0, nil
	})
}

func consumeParams(typ protowire.Type, b []byte, p *StripingParams) (int, error) {
	v, n, err := consumeBytes(typ, b)
	if err != nil {
		return 0, err
	}
	return n, p.UnmarshalWire(v)
}

// ObjectMeta is persisted in the "meta" attribute of every log data object.
type ObjectMeta struct {
	Params   StripingParams
	ObjectID uint64
}

func (m *ObjectMeta) AppendWire(b []byte) []byte {
	b = appendMessage(b, 1, &m.Params)
	b = appendVarint(b, 2, m.ObjectID)
	return b
}

func (m *ObjectMeta) UnmarshalWire(b []byte) error {
	*m = ObjectMeta{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeParams(typ, b, &m.Params)
		case 2:
			return consumeUint64(typ, b, &m.ObjectID)
		}
		return 0, nil
	})
}

// View is the striping geometry in effect from Epoch onward.
type View struct {
	Epoch      uint64
	NumStripes uint32
	Params     StripingParams
}

func (m *View) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, m.Epoch)
	b = appendVarint(b, 2, uint64(m.NumStripes))
	b = appendMessage(b, 3, &m.Params)
	return b
}

func (m *View) UnmarshalWire(b []byte) error {
	*m = View{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint64(typ, b, &m.Epoch)
		case 2:
			return consumeUint32(typ, b, &m.NumStripes)
		case 3:
			return consumeParams(typ, b, &m.Params)
		}
		return 0, nil
	})
}

type InitOp struct {
	Params   StripingParams
	ObjectID uint64
}

func (m *InitOp) AppendWire(b []byte) []byte {
	b = appendMessage(b, 1, &m.Params)
	b = appendVarint(b, 2, m.ObjectID)
	return b
}

func (m *InitOp) UnmarshalWire(b []byte) error {
	*m = InitOp{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeParams(typ, b, &m.Params)
		case 2:
			return consumeUint64(typ, b, &m.ObjectID)
		}
		return 0, nil
	})
}

type ReadOp struct {
	Position uint64
}

func (m *ReadOp) AppendWire(b []byte) []byte {
	return appendVarint(b, 1, m.Position)
}

func (m *ReadOp) UnmarshalWire(b []byte) error {
	*m = ReadOp{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeUint64(typ, b, &m.Position)
		}
		return 0, nil
	})
}

type WriteOp struct {
	Position uint64
	Data     []byte
}

func (m *WriteOp) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, m.Position)
	b = appendBytes(b, 2, m.Data)
	return b
}

func (m *WriteOp) UnmarshalWire(b []byte) error {
	*m = WriteOp{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint64(typ, b, &m.Position)
		case 2:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			m.Data = append([]byte(nil), v...)
			return n, nil
		}
		return 0, nil
	})
}

type InvalidateOp struct {
	Position uint64
	Force    bool
}

func (m *InvalidateOp) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, m.Position)
	b = appendVarint(b, 2, protowire.EncodeBool(m.Force))
	return b
}

func (m *InvalidateOp) UnmarshalWire(b []byte) error {
	*m = InvalidateOp{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint64(typ, b, &m.Position)
		case 2:
			v, n, err := consumeVarint(typ, b)
			if err != nil {
				return 0, err
			}
			m.Force = protowire.DecodeBool(v)
			return n, nil
		}
		return 0, nil
	})
}

type ViewInitOp struct {
	NumStripes uint32
	Params     StripingParams
}

func (m *ViewInitOp) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.NumStripes))
	b = appendMessage(b, 2, &m.Params)
	return b
}

func (m *ViewInitOp) UnmarshalWire(b []byte) error {
	*m = ViewInitOp{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.NumStripes)
		case 2:
			return consumeParams(typ, b, &m.Params)
		}
		return 0, nil
	})
}

type ViewReadOp struct {
	MinEpoch uint64
}

func (m *ViewReadOp) AppendWire(b []byte) []byte {
	return appendVarint(b, 1, m.MinEpoch)
}

func (m *ViewReadOp) UnmarshalWire(b []byte) error {
	*m = ViewReadOp{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeUint64(typ, b, &m.MinEpoch)
		}
		return 0, nil
	})
}

type ViewReadReply struct {
	Views []View
}

func (m *ViewReadReply) AppendWire(b []byte) []byte {
	for i := range m.Views {
		b = appendMessage(b, 1, &m.Views[i])
	}
	return b
}

func (m *ViewReadReply) UnmarshalWire(b []byte) error {
	*m = ViewReadReply{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		var view View
		if err := view.UnmarshalWire(v); err != nil {
			return 0, err
		}
		m.Views = append(m.Views, view)
		return n, nil
	})
}

// ExecRequest invokes Method against the storage object named Object. Input
// is the encoded operation message for that method.
type ExecRequest struct {
	Object string
	Method string
	Input  []byte
}

func (m *ExecRequest) AppendWire(b []byte) []byte {
	b = appendBytes(b, 1, []byte(m.Object))
	b = appendBytes(b, 2, []byte(m.Method))
	b = appendBytes(b, 3, m.Input)
	return b
}

func (m *ExecRequest) UnmarshalWire(b []byte) error {
	*m = ExecRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num < 1 || num > 3 {
			return 0, nil
		}
		v, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		switch num {
		case 1:
			m.Object = string(v)
		case 2:
			m.Method = string(v)
		case 3:
			m.Input = append([]byte(nil), v...)
		}
		return n, nil
	})
}

// ExecReply carries the handler status and output. Negative status values
// are error kinds; non-negative values are method specific outcomes.
type ExecReply struct {
	Status int32
	Output []byte
}

func (m *ExecReply) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, protowire.EncodeZigZag(int64(m.Status)))
	b = appendBytes(b, 2, m.Output)
	return b
}

func (m *ExecReply) UnmarshalWire(b []byte) error {
	*m = ExecReply{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			if err != nil {
				return 0, err
			}
			m.Status = int32(protowire.DecodeZigZag(v))
			return n, nil
		case 2:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			m.Output = append([]byte(nil), v...)
			return n, nil
		}
		return 0, nil
	})
}
