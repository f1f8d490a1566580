package objclass

import (
	"github.com/chn0318/stripelog/layout"
	"github.com/chn0318/stripelog/objstore"
	"github.com/chn0318/stripelog/proto/zlogpb"
)

// slotTarget is a resolved entry slot inside a data object.
type slotTarget struct {
	loc     layout.Location
	objSize uint64
}

// resolve stats the object, loads its metadata and checks that position
// really maps onto this object.
func (c *Class) resolve(op string, obj objstore.Object, position uint64) (slotTarget, error) {
	log := c.log.WithField("object", obj.Name())

	size, err := obj.Stat()
	if err != nil {
		if objstore.IsNotFound(err) {
			log.Debugf("%s: object does not exist", op)
		} else {
			log.Errorf("%s: stat failed: %v", op, err)
		}
		return slotTarget{}, storageError(op, err, "stat")
	}

	meta, err := c.ReadMeta(obj)
	if err != nil {
		return slotTarget{}, err
	}

	params := toLayout(meta.Params)
	if err := params.Validate(); err != nil {
		log.Errorf("%s: invalid object metadata: %v", op, err)
		return slotTarget{}, newError(KindCorrupt, op, "%v", err)
	}

	loc := params.Locate(position)
	if loc.ObjectNo != meta.ObjectID {
		log.Errorf("%s: wrong object target for position %d", op, position)
		return slotTarget{}, newError(KindWrongTarget, op,
			"position %d maps to object %d, not %d", position, loc.ObjectNo, meta.ObjectID)
	}
	return slotTarget{loc: loc, objSize: size}, nil
}

// readState returns the slot header. Slots past the end of the object are
// implicitly unused.
func (c *Class) readState(op string, obj objstore.Object, t slotTarget) (EntryState, error) {
	if t.loc.Offset >= t.objSize {
		return StateUnused, nil
	}
	b, err := obj.Read(t.loc.Offset, layout.HeaderSize)
	if err != nil {
		c.log.WithField("object", obj.Name()).Errorf("%s: failed to read entry header: %v", op, err)
		return 0, storageError(op, err, "read entry header")
	}
	if len(b) != layout.HeaderSize {
		c.log.WithField("object", obj.Name()).Errorf("%s: partial entry header read", op)
		return 0, newError(KindCorrupt, op, "partial entry header read")
	}
	return EntryState(b[0]), nil
}

// Read returns the payload stored at position. Unwritten and invalidated
// entries are reported through the status, not as errors.
func (c *Class) Read(obj objstore.Object, position uint64) ([]byte, zlogpb.ReadStatus, error) {
	log := c.log.WithField("object", obj.Name())

	t, err := c.resolve("read", obj, position)
	if err != nil {
		return nil, 0, err
	}

	if t.loc.Offset+t.loc.SlotSize > t.objSize {
		log.Debug("read: entry not written (past eof)")
		return nil, zlogpb.ReadUnwritten, nil
	}

	b, err := obj.Read(t.loc.Offset, t.loc.SlotSize)
	if err != nil {
		log.Errorf("read: failed to read entry: %v", err)
		return nil, 0, storageError("read", err, "read entry")
	}
	if uint64(len(b)) != t.loc.SlotSize {
		log.Error("read: partial entry read")
		return nil, 0, newError(KindCorrupt, "read", "partial entry read: %d of %d bytes", len(b), t.loc.SlotSize)
	}

	state, payload, err := DecodeSlot(b)
	if err != nil {
		log.Errorf("read: %v", err)
		return nil, 0, err
	}
	switch state {
	case StateTaken:
		return payload, zlogpb.ReadOK, nil
	case StateInvalid:
		log.Debug("read: invalid entry")
		return nil, zlogpb.ReadInvalid, nil
	default:
		log.Debug("read: entry not written")
		return nil, zlogpb.ReadUnwritten, nil
	}
}

// Write stores data at position. Slots are write-once.
func (c *Class) Write(obj objstore.Object, position uint64, data []byte) error {
	log := c.log.WithField("object", obj.Name())

	t, err := c.resolve("write", obj, position)
	if err != nil {
		return err
	}

	state, err := c.readState("write", obj, t)
	if err != nil {
		return err
	}
	if state != StateUnused {
		log.Debug("write: entry already exists")
		return newError(KindAlreadyExists, "write", "position %d is %s", position, state)
	}

	slot, err := EncodeSlot(StateTaken, data, t.loc.SlotSize)
	if err != nil {
		log.Errorf("write: entry too large: %v", err)
		return err
	}

	if err := obj.Write(t.loc.Offset, slot); err != nil {
		log.Errorf("write: failed to write entry: %v", err)
		return storageError("write", err, "write entry")
	}
	return nil
}

// Invalidate marks position as invalid. Unless force is set, an entry that
// holds data is left alone and ErrReadOnly is returned.
func (c *Class) Invalidate(obj objstore.Object, position uint64, force bool) error {
	log := c.log.WithField("object", obj.Name())

	t, err := c.resolve("invalidate", obj, position)
	if err != nil {
		return err
	}

	state := StateUnused
	if !force {
		state, err = c.readState("invalidate", obj, t)
		if err != nil {
			return err
		}
	}

	if state == StateInvalid {
		log.Debug("invalidate: entry already invalid")
		return nil
	}

	if state != StateUnused && !force {
		log.Debug("invalidate: entry is valid")
		return newError(KindReadOnly, "invalidate", "position %d holds a %s entry", position, state)
	}

	// beyond the end the whole slot is materialized, otherwise only the
	// header changes and any old payload is left in place
	buf := []byte{byte(StateInvalid)}
	if t.loc.Offset >= t.objSize {
		buf, err = EncodeSlot(StateInvalid, nil, t.loc.SlotSize)
		if err != nil {
			return err
		}
	}
	if err := obj.Write(t.loc.Offset, buf); err != nil {
		log.Errorf("invalidate: failed to update entry: %v", err)
		return storageError("invalidate", err, "update entry")
	}
	return nil
}
