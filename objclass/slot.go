package objclass

import (
	"github.com/chn0318/stripelog/layout"
)

// EntryState is the header byte at the start of every entry slot.
type EntryState uint8

const (
	StateUnused EntryState = 0
	// all non-unused states must be non-zero
	StateTaken   EntryState = 1
	StateInvalid EntryState = 2
)

func (s EntryState) String() string {
	switch s {
	case StateUnused:
		return "unused"
	case StateTaken:
		return "taken"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// EncodeSlot lays out a full slot: the state header, the payload, then zero
// padding up to slotSize.
func EncodeSlot(state EntryState, payload []byte, slotSize uint64) ([]byte, error) {
	if uint64(len(payload))+layout.HeaderSize > slotSize {
		return nil, newError(KindTooLarge, "encode slot", "payload of %d bytes exceeds slot of %d bytes",
			len(payload), slotSize)
	}
	b := make([]byte, slotSize)
	b[0] = byte(state)
	copy(b[layout.HeaderSize:], payload)
	return b, nil
}

// DecodeSlot splits a slot into its state and payload. The payload aliases b.
func DecodeSlot(b []byte) (EntryState, []byte, error) {
	if len(b) < layout.HeaderSize {
		return 0, nil, newError(KindCorrupt, "decode slot", "empty slot")
	}
	state := EntryState(b[0])
	switch state {
	case StateUnused, StateTaken, StateInvalid:
		return state, b[layout.HeaderSize:], nil
	}
	return 0, nil, newError(KindCorrupt, "decode slot", "unexpected entry state %d", b[0])
}
