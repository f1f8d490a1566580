// Package layout maps logical log positions onto striped storage objects.
//
// Positions are distributed round-robin across StripeWidth objects. Each
// object holds EntriesPerObject consecutive stripes worth of slots before the
// next object set starts a fresh group of StripeWidth objects.
package layout

import "github.com/pkg/errors"

// HeaderSize is the size of the state byte in front of every entry slot.
const HeaderSize = 1

// Params describes the striping geometry of a log.
type Params struct {
	EntrySize        uint32
	StripeWidth      uint32
	EntriesPerObject uint32
}

// Location is the physical placement of a single log position.
type Location struct {
	ObjectNo uint64
	SlotSize uint64
	Offset   uint64
}

// Validate reports whether all geometry fields are set.
func (p Params) Validate() error {
	if p.EntrySize == 0 || p.StripeWidth == 0 || p.EntriesPerObject == 0 {
		return errors.Errorf("invalid striping params: entry_size=%d stripe_width=%d entries_per_object=%d",
			p.EntrySize, p.StripeWidth, p.EntriesPerObject)
	}
	return nil
}

// SlotSize returns the physical size of one entry slot.
func (p Params) SlotSize() uint64 {
	return HeaderSize + uint64(p.EntrySize)
}

// Locate computes the placement of position. p must be valid.
func (p Params) Locate(position uint64) Location {
	return Compute(position, p.StripeWidth, p.EntriesPerObject, p.EntrySize)
}

// Compute maps position to an object number and a slot inside that object.
// Callers must reject zero parameters before calling.
func Compute(position uint64, stripeWidth, entriesPerObject, entrySize uint32) Location {
	width := uint64(stripeWidth)
	perObject := uint64(entriesPerObject)

	stripeNum := position / width
	slot := stripeNum % perObject
	stripePos := position % width
	objectSetNo := stripeNum / perObject

	slotSize := HeaderSize + uint64(entrySize)
	return Location{
		ObjectNo: objectSetNo*width + stripePos,
		SlotSize: slotSize,
		Offset:   slot * slotSize,
	}
}
