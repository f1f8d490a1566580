// Package stripedlog implements sharedlog.SharedLog on top of the object
// class: positions are striped across data objects named "<log>.<n>" using
// the geometry of the log's newest view.
package stripedlog

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chn0318/stripelog/layout"
	"github.com/chn0318/stripelog/objclass"
	"github.com/chn0318/stripelog/proto/zlogpb"
	"github.com/chn0318/stripelog/sharedlog"
	"github.com/chn0318/stripelog/storageclient"
	"github.com/chn0318/stripelog/viewcache"
)

type Log struct {
	name   string
	client *storageclient.Client
	views  *viewcache.Cache
	log    logrus.FieldLogger
}

var _ sharedlog.SharedLog = (*Log)(nil)

type Option func(*Log)

// WithViewCache shares a view cache between logs.
func WithViewCache(c *viewcache.Cache) Option {
	return func(l *Log) { l.views = c }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Log) { l.log = log }
}

// Create writes the first view of a new log and opens it.
func Create(ctx context.Context, client *storageclient.Client, name string, numStripes uint32, params zlogpb.StripingParams, opts ...Option) (*Log, error) {
	if err := client.ViewInit(ctx, sharedlog.HeadObject(name), numStripes, params); err != nil {
		return nil, errors.Wrapf(err, "create log %q", name)
	}
	return Open(ctx, client, name, opts...)
}

// Open loads the views of an existing log.
func Open(ctx context.Context, client *storageclient.Client, name string, opts ...Option) (*Log, error) {
	l := &Log{
		name:   name,
		client: client,
		views:  viewcache.New(),
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithField("log", name)

	if _, err := l.RefreshView(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// RefreshView reads any views newer than the cached one.
func (l *Log) RefreshView(ctx context.Context) (zlogpb.View, error) {
	var minEpoch uint64
	if cur, ok := l.views.Latest(l.name); ok {
		minEpoch = cur.Epoch
	}

	views, err := l.client.ViewRead(ctx, sharedlog.HeadObject(l.name), minEpoch)
	if err != nil {
		return zlogpb.View{}, errors.Wrapf(err, "read views of log %q", l.name)
	}
	v, _ := l.views.Apply(l.name, views)
	l.log.WithField("epoch", v.Epoch).Debug("view refreshed")
	return v, nil
}

// View returns the view positions are currently mapped with.
func (l *Log) View() zlogpb.View {
	v, _ := l.views.Latest(l.name)
	return v
}

// locate maps position with the cached view, reloading the view when the
// cache has none for this log.
func (l *Log) locate(ctx context.Context, position uint64) (string, uint64, zlogpb.StripingParams, error) {
	v, ok := l.views.Latest(l.name)
	if !ok {
		var err error
		if v, err = l.RefreshView(ctx); err != nil {
			return "", 0, zlogpb.StripingParams{}, err
		}
	}

	p := layout.Params{
		EntrySize:        v.Params.EntrySize,
		StripeWidth:      v.Params.StripeWidth,
		EntriesPerObject: v.Params.EntriesPerObject,
	}
	if err := p.Validate(); err != nil {
		return "", 0, zlogpb.StripingParams{}, errors.Wrapf(err, "view %d of log %q", v.Epoch, l.name)
	}
	loc := p.Locate(position)
	return sharedlog.ObjectName(l.name, loc.ObjectNo), loc.ObjectNo, v.Params, nil
}

// withObject runs fn against the object holding position, initializing the
// object and retrying once if it does not exist yet.
func (l *Log) withObject(ctx context.Context, position uint64, fn func(object string) error) error {
	object, objectNo, params, err := l.locate(ctx, position)
	if err != nil {
		return err
	}

	err = fn(object)
	if !errors.Is(err, objclass.ErrNotFound) {
		return err
	}

	l.log.WithField("object", object).Debug("initializing data object")
	if err := l.client.Init(ctx, object, params, objectNo); err != nil {
		return errors.Wrapf(err, "init %s", object)
	}
	return fn(object)
}

func (l *Log) Write(ctx context.Context, position uint64, data []byte) error {
	err := l.withObject(ctx, position, func(object string) error {
		return l.client.Write(ctx, object, position, data)
	})
	if errors.Is(err, objclass.ErrAlreadyExists) {
		return sharedlog.ErrTaken
	}
	return err
}

func (l *Log) Read(ctx context.Context, position uint64) ([]byte, error) {
	object, _, _, err := l.locate(ctx, position)
	if err != nil {
		return nil, err
	}

	data, st, err := l.client.Read(ctx, object, position)
	if errors.Is(err, objclass.ErrNotFound) {
		return nil, sharedlog.ErrUnwritten
	}
	if err != nil {
		return nil, err
	}
	switch st {
	case zlogpb.ReadOK:
		return data, nil
	case zlogpb.ReadInvalid:
		return nil, sharedlog.ErrInvalidated
	default:
		return nil, sharedlog.ErrUnwritten
	}
}

func (l *Log) Fill(ctx context.Context, position uint64) error {
	err := l.withObject(ctx, position, func(object string) error {
		return l.client.Invalidate(ctx, object, position, false)
	})
	if errors.Is(err, objclass.ErrReadOnly) {
		return sharedlog.ErrWritten
	}
	return err
}
