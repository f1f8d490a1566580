package objclass

import (
	"fmt"
	"math"

	"github.com/chn0318/stripelog/objstore"
	"github.com/chn0318/stripelog/proto/zlogpb"
)

const viewKeyPrefix = "view.epoch."

// ViewKey is the omap key of the view for epoch. The zero padding keeps the
// lexicographic key order equal to the numeric epoch order.
func ViewKey(epoch uint64) string {
	return fmt.Sprintf("%s%020d", viewKeyPrefix, epoch)
}

// ViewInit creates the epoch 0 view in a fresh log metadata object.
func (c *Class) ViewInit(obj objstore.Object, numStripes uint32, params zlogpb.StripingParams) error {
	log := c.log.WithField("object", obj.Name())

	_, err := obj.Stat()
	if err == nil {
		log.Error("view_init: object already exists")
		return newError(KindAlreadyExists, "view_init", "metadata object %q exists", obj.Name())
	}
	if !objstore.IsNotFound(err) {
		log.Errorf("view_init: stat error: %v", err)
		return storageError("view_init", err, "stat")
	}

	view := zlogpb.View{Epoch: 0, NumStripes: numStripes, Params: params}
	if numStripes == 0 || toLayout(params).Validate() != nil {
		log.Error("view_init: invalid view parameters")
		return newError(KindInvalidArgument, "view_init",
			"num_stripes=%d entry_size=%d stripe_width=%d entries_per_object=%d",
			numStripes, params.EntrySize, params.StripeWidth, params.EntriesPerObject)
	}

	if err := obj.OmapSet(ViewKey(view.Epoch), zlogpb.Marshal(&view)); err != nil {
		log.Errorf("view_init: could not write view: %v", err)
		return storageError("view_init", err, "write view")
	}
	return nil
}

// ViewRead returns the contiguous run of views starting at minEpoch. The scan
// stops at the first missing epoch.
func (c *Class) ViewRead(obj objstore.Object, minEpoch uint64) ([]zlogpb.View, error) {
	log := c.log.WithField("object", obj.Name())

	if _, err := obj.Stat(); err != nil {
		log.Errorf("view_read: failed to stat view object: %v", err)
		return nil, storageError("view_read", err, "stat")
	}

	var views []zlogpb.View
	for epoch := minEpoch; ; epoch++ {
		b, err := obj.OmapGet(ViewKey(epoch))
		if objstore.IsNotFound(err) {
			break
		}
		if err != nil {
			log.Errorf("view_read: failed to read view: %v", err)
			return nil, storageError("view_read", err, "read view %d", epoch)
		}

		var view zlogpb.View
		if err := view.UnmarshalWire(b); err != nil {
			log.Errorf("view_read: failed to decode view: %v", err)
			return nil, &Error{Kind: KindCorrupt, Op: "view_read", Msg: fmt.Sprintf("decode view %d", epoch), Err: err}
		}
		views = append(views, view)

		if epoch == math.MaxUint64 {
			break
		}
	}

	if len(views) == 0 {
		log.Errorf("view_read: no views found at or after epoch %d", minEpoch)
		return nil, newError(KindInvalidArgument, "view_read", "no views at or after epoch %d", minEpoch)
	}
	return views, nil
}
