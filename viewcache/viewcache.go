// Package viewcache keeps the newest known view of each log.
package viewcache

import (
	"sync"

	"github.com/chn0318/stripelog/proto/zlogpb"
)

// Cache maps a log name to the highest-epoch view seen for it.
type Cache struct {
	mu    sync.RWMutex
	views map[string]zlogpb.View
}

func New() *Cache {
	return &Cache{
		views: make(map[string]zlogpb.View),
	}
}

// Apply merges views read for log. A cached view is only replaced by one with
// a larger epoch. It returns the view in effect afterwards.
func (c *Cache) Apply(log string, views []zlogpb.View) (zlogpb.View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.views[log]
	for _, v := range views {
		if !ok || v.Epoch > cur.Epoch {
			cur, ok = v, true
		}
	}
	if ok {
		c.views[log] = cur
	}
	return cur, ok
}

func (c *Cache) Latest(log string) (zlogpb.View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[log]
	return v, ok
}

// Forget drops the cached view of log.
func (c *Cache) Forget(log string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, log)
}
