package objclass

import (
	"github.com/chn0318/stripelog/layout"
	"github.com/chn0318/stripelog/objstore"
	"github.com/chn0318/stripelog/proto/zlogpb"
)

// MetaXattr is the attribute holding a data object's ObjectMeta.
const MetaXattr = "meta"

func toLayout(p zlogpb.StripingParams) layout.Params {
	return layout.Params{
		EntrySize:        p.EntrySize,
		StripeWidth:      p.StripeWidth,
		EntriesPerObject: p.EntriesPerObject,
	}
}

// ReadMeta loads the metadata attribute of a log data object.
func (c *Class) ReadMeta(obj objstore.Object) (zlogpb.ObjectMeta, error) {
	var meta zlogpb.ObjectMeta

	b, err := obj.GetXattr(MetaXattr)
	if err != nil {
		c.log.WithField("object", obj.Name()).Errorf("read_meta: %v", err)
		return meta, storageError("read_meta", err, "metadata attribute")
	}
	if len(b) == 0 {
		c.log.WithField("object", obj.Name()).Error("read_meta: no data")
		return meta, newError(KindCorrupt, "read_meta", "empty metadata attribute")
	}
	if err := meta.UnmarshalWire(b); err != nil {
		c.log.WithField("object", obj.Name()).Errorf("read_meta: failed to decode: %v", err)
		return meta, &Error{Kind: KindCorrupt, Op: "read_meta", Msg: "decode metadata", Err: err}
	}
	return meta, nil
}

// Init records the striping geometry and identity of a data object, or checks
// that an already initialized object agrees with the request.
func (c *Class) Init(obj objstore.Object, op zlogpb.InitOp) error {
	log := c.log.WithField("object", obj.Name())

	if err := toLayout(op.Params).Validate(); err != nil {
		log.Errorf("init: %v", err)
		return newError(KindInvalidArgument, "init", "%v", err)
	}

	_, err := obj.Stat()
	if err != nil && !objstore.IsNotFound(err) {
		log.Errorf("init: stat failed: %v", err)
		return storageError("init", err, "stat")
	}

	var meta zlogpb.ObjectMeta
	if err == nil {
		meta, err = c.ReadMeta(obj)
		if err != nil {
			if KindOf(err) == KindNotFound {
				// an existing object without metadata was not created by init
				return newError(KindCorrupt, "init", "object exists without metadata")
			}
			return err
		}
	} else {
		meta = zlogpb.ObjectMeta{Params: op.Params, ObjectID: op.ObjectID}
		if err := obj.SetXattr(MetaXattr, zlogpb.Marshal(&meta)); err != nil {
			log.Errorf("init: failed to write metadata: %v", err)
			return storageError("init", err, "write metadata")
		}
		log.WithField("object_id", meta.ObjectID).Debug("init: metadata written")
	}

	if err := toLayout(meta.Params).Validate(); err != nil {
		log.Errorf("init: invalid object metadata: %v", err)
		return newError(KindCorrupt, "init", "%v", err)
	}

	if meta.Params != op.Params || meta.ObjectID != op.ObjectID {
		log.Error("init: metadata mismatch")
		return newError(KindMismatch, "init",
			"stored entry_size=%d stripe_width=%d entries_per_object=%d object_id=%d",
			meta.Params.EntrySize, meta.Params.StripeWidth, meta.Params.EntriesPerObject, meta.ObjectID)
	}
	return nil
}
