package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilchitrapu/portfolio/internal/fade"
	"github.com/nikhilchitrapu/portfolio/internal/view"
	"github.com/pkg/errors"
)

var (
	// ErrViewNotFound means the page view id is unknown or has expired.
	ErrViewNotFound = errors.New("page view not found")
	// ErrUnmounted means the page view's scroll listener has been released.
	ErrUnmounted = errors.New("page view unmounted")
)

// pageView is the server side of one loaded page: its UI state, the scroll
// bus the browser reports into, and the fade-in engine listening on it.
type pageView struct {
	id         string
	controller *view.Controller
	root       *view.RootClasses
	bus        *fade.Bus
	engine     *fade.Engine

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	mount     *fade.Mount
	unmounted bool
	lastSeen  time.Time
}

// Mount attaches the engine to the view's bus and checks the initial layout.
// A second mount on a live view is treated as a scroll report.
func (v *pageView) Mount(layout fade.Layout) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		return nil, ErrUnmounted
	}
	if v.mount == nil {
		v.mount = v.engine.Mount(v.ctx, v.bus, layout)
	} else {
		v.bus.Dispatch(fade.ScrollEvent{Layout: layout})
	}
	return v.engine.VisibleIDs(), nil
}

// Scroll delivers a scroll notification. Before mount nothing listens, so it changes nothing.
func (v *pageView) Scroll(layout fade.Layout) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		return nil, ErrUnmounted
	}
	v.bus.Dispatch(fade.ScrollEvent{Layout: layout})
	return v.engine.VisibleIDs(), nil
}

// Unmount releases the scroll listener. It is safe to call repeatedly.
func (v *pageView) Unmount() {
	v.mu.Lock()
	v.unmounted = true
	mount := v.mount
	v.mu.Unlock()

	if mount != nil {
		mount.Unmount()
	}
	v.cancel()
}

// registry holds live page views and expires idle ones. Ids of views that
// were unmounted, swept or evicted are remembered for one TTL so late
// reports get ErrUnmounted instead of ErrViewNotFound.
type registry struct {
	mu        sync.Mutex
	views     map[string]*pageView
	gone      map[string]time.Time
	ttl       time.Duration
	max       int
	evictions uint64
	now       func() time.Time
	base      context.Context
}

// newRegistry keeps at most limit live views; limit <= 0 means no limit.
func newRegistry(ttl time.Duration, limit int) *registry {
	return &registry{
		views: map[string]*pageView{},
		gone:  map[string]time.Time{},
		ttl:   ttl,
		max:   limit,
		now:   time.Now,
		base:  context.Background(),
	}
}

// Create registers a new page view for controller. When the registry is
// full the least recently seen view is unmounted to make room.
func (r *registry) Create(controller *view.Controller, root *view.RootClasses, engine *fade.Engine) *pageView {
	ctx, cancel := context.WithCancel(r.base)
	v := &pageView{
		id:         uuid.NewString(),
		controller: controller,
		root:       root,
		bus:        fade.NewBus(),
		engine:     engine,
		ctx:        ctx,
		cancel:     cancel,
		lastSeen:   r.now(),
	}

	r.mu.Lock()
	var evicted *pageView
	if r.max > 0 && len(r.views) >= r.max {
		evicted = r.oldestLocked()
		if evicted != nil {
			delete(r.views, evicted.id)
			r.buryLocked(evicted.id)
			r.evictions++
		}
	}
	r.views[v.id] = v
	r.mu.Unlock()

	if evicted != nil {
		evicted.Unmount()
	}
	return v
}

func (r *registry) oldestLocked() *pageView {
	var oldest *pageView
	var oldestSeen time.Time
	for _, v := range r.views {
		v.mu.Lock()
		seen := v.lastSeen
		v.mu.Unlock()
		if oldest == nil || seen.Before(oldestSeen) {
			oldest, oldestSeen = v, seen
		}
	}
	return oldest
}

// buryLocked records id as unmounted. The tombstone set is capped like the
// live set; losing a tombstone only turns a 410 into a 404.
func (r *registry) buryLocked(id string) {
	if r.max > 0 && len(r.gone) >= r.max {
		for old := range r.gone {
			delete(r.gone, old)
			break
		}
	}
	r.gone[id] = r.now()
}

// Get returns the view and marks it as recently used.
func (r *registry) Get(id string) (*pageView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok {
		if _, buried := r.gone[id]; buried {
			return nil, ErrUnmounted
		}
		return nil, ErrViewNotFound
	}
	v.mu.Lock()
	v.lastSeen = r.now()
	v.mu.Unlock()
	return v, nil
}

// Remove unmounts and forgets the view. It reports whether the view was live.
func (r *registry) Remove(id string) bool {
	r.mu.Lock()
	v, ok := r.views[id]
	if ok {
		delete(r.views, id)
		r.buryLocked(id)
	}
	r.mu.Unlock()

	if ok {
		v.Unmount()
	}
	return ok
}

// Sweep removes views idle for longer than the TTL, drops tombstones of the
// same age, and returns how many views it removed.
func (r *registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	for id, at := range r.gone {
		if at.Before(cutoff) {
			delete(r.gone, id)
		}
	}
	var expired []*pageView
	for id, v := range r.views {
		v.mu.Lock()
		idle := v.lastSeen.Before(cutoff)
		v.mu.Unlock()
		if idle {
			expired = append(expired, v)
			delete(r.views, id)
			r.buryLocked(id)
		}
	}
	r.mu.Unlock()

	for _, v := range expired {
		v.Unmount()
	}
	return len(expired)
}

// Len returns the number of live views.
func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Evictions returns how many views were dropped to stay under the limit.
func (r *registry) Evictions() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictions
}

// Run sweeps every interval until ctx is done, then unmounts everything left.
func (r *registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *registry) closeAll() {
	r.mu.Lock()
	views := r.views
	r.views = map[string]*pageView{}
	r.gone = map[string]time.Time{}
	r.mu.Unlock()

	for _, v := range views {
		v.Unmount()
	}
}
