package fade

import (
	"context"
	"sync"
)

// Option configures an Engine.
type Option func(*Engine)

// WithOffset overrides DefaultOffset.
func WithOffset(offset float64) Option {
	return func(e *Engine) { e.offset = offset }
}

// WithRevealHook is called, outside the engine lock, with each region id the
// moment it is revealed. The hook must not unmount the engine's own Mount.
func WithRevealHook(fn func(id string)) Option {
	return func(e *Engine) { e.onReveal = fn }
}

// Engine holds the visibility latch for an ordered set of regions.
type Engine struct {
	mu       sync.Mutex
	offset   float64
	regions  []string
	visible  map[string]bool
	onReveal func(id string)
}

func NewEngine(regions []string, opts ...Option) *Engine {
	e := &Engine{
		offset:  DefaultOffset,
		regions: append([]string(nil), regions...),
		visible: make(map[string]bool, len(regions)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check scans every region against l and latches the ones inside the
// threshold. It returns the ids revealed by this call, in region order.
// Regions missing from l are left untouched.
func (e *Engine) Check(l Layout) []string {
	if l == nil {
		return nil
	}

	e.mu.Lock()
	var revealed []string
	height := l.ViewportHeight()
	for _, id := range e.regions {
		if e.visible[id] {
			continue
		}
		top, ok := l.Top(id)
		if !ok {
			continue
		}
		if Revealed(top, height, e.offset) {
			e.visible[id] = true
			revealed = append(revealed, id)
		}
	}
	hook := e.onReveal
	e.mu.Unlock()

	if hook != nil {
		for _, id := range revealed {
			hook(id)
		}
	}
	return revealed
}

// Visible reports whether id has been revealed.
func (e *Engine) Visible(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible[id]
}

// VisibleIDs returns the revealed regions in region order.
func (e *Engine) VisibleIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.visible))
	for _, id := range e.regions {
		if e.visible[id] {
			out = append(out, id)
		}
	}
	return out
}

// Mount is a live subscription of an Engine to a Source.
type Mount struct {
	mu      sync.Mutex
	cancel  func()
	stop    func() bool
	mounted bool
}

// Mount subscribes the engine to src and immediately checks initial, so
// regions already on screen are revealed without a scroll. The subscription
// ends when Unmount is called or ctx is done, whichever comes first.
func (e *Engine) Mount(ctx context.Context, src Source, initial Layout) *Mount {
	m := &Mount{mounted: true}

	m.cancel = src.Subscribe(func(ev ScrollEvent) {
		// A dispatch that snapshotted its handlers before Unmount can still
		// land here. The lock is held across the check, so Unmount waits
		// for one in flight.
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.mounted {
			return
		}
		e.Check(ev.Layout)
	})

	e.Check(initial)

	if ctx != nil {
		m.mu.Lock()
		m.stop = context.AfterFunc(ctx, m.Unmount)
		m.mu.Unlock()
	}
	return m
}

// Unmount releases the subscription. Calling it again is a no-op.
func (m *Mount) Unmount() {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return
	}
	m.mounted = false
	cancel, stop := m.cancel, m.stop
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	cancel()
}

// Mounted reports whether the subscription is still live.
func (m *Mount) Mounted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted
}
