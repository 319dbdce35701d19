package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/nikhilchitrapu/portfolio/internal/fade"
	"github.com/nikhilchitrapu/portfolio/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestView(t *testing.T, r *registry) *pageView {
	t.Helper()
	store, err := content.Default()
	require.NoError(t, err)

	root := &view.RootClasses{}
	ctrl, err := view.NewController(store, [2]content.Language{content.English, content.German}, root)
	require.NoError(t, err)
	return r.Create(ctrl, root, fade.NewEngine(view.SectionIDs))
}

func TestPageViewMountIsScopedToView(t *testing.T) {
	r := newRegistry(time.Minute, 0)
	pv := newTestView(t, r)

	visible, err := pv.Mount(fade.Snapshot{Viewport: 800, Tops: map[string]float64{"about": 10}})
	require.NoError(t, err)
	assert.Equal(t, []string{"about"}, visible)
	assert.Equal(t, 1, pv.bus.Len())

	// A repeated mount reports layout without subscribing twice.
	visible, err = pv.Mount(fade.Snapshot{Viewport: 800, Tops: map[string]float64{"experience": 10}})
	require.NoError(t, err)
	assert.Equal(t, []string{"about", "experience"}, visible)
	assert.Equal(t, 1, pv.bus.Len())

	pv.Unmount()
	pv.Unmount()
	assert.Equal(t, 0, pv.bus.Len())
	assert.Error(t, pv.ctx.Err())

	_, err = pv.Scroll(fade.Snapshot{Viewport: 800, Tops: map[string]float64{"skills": 10}})
	assert.ErrorIs(t, err, ErrUnmounted)
	assert.False(t, pv.engine.Visible("skills"))
}

func TestRegistryGetAndRemove(t *testing.T) {
	r := newRegistry(time.Minute, 0)
	pv := newTestView(t, r)

	got, err := r.Get(pv.id)
	require.NoError(t, err)
	assert.Same(t, pv, got)

	assert.True(t, r.Remove(pv.id))
	assert.False(t, r.Remove(pv.id))

	_, err = r.Get(pv.id)
	assert.ErrorIs(t, err, ErrUnmounted)

	_, err = r.Get("never-created")
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestRegistryEvictsLeastRecentlySeen(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := newRegistry(time.Hour, 2)
	r.now = func() time.Time { return now }

	a := newTestView(t, r)
	_, err := a.Mount(fade.Snapshot{Viewport: 800})
	require.NoError(t, err)
	now = now.Add(time.Second)
	b := newTestView(t, r)
	now = now.Add(time.Second)

	// Touching a makes b the least recently seen.
	_, err = r.Get(a.id)
	require.NoError(t, err)
	now = now.Add(time.Second)

	c := newTestView(t, r)
	assert.Equal(t, 2, r.Len())
	assert.EqualValues(t, 1, r.Evictions())

	_, err = r.Get(b.id)
	assert.ErrorIs(t, err, ErrUnmounted)
	assert.Error(t, b.ctx.Err())

	for _, live := range []*pageView{a, c} {
		_, err = r.Get(live.id)
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, a.bus.Len())
}

func TestRegistryStaysBoundedUnderLoad(t *testing.T) {
	r := newRegistry(time.Hour, 50)
	for i := 0; i < 500; i++ {
		newTestView(t, r)
	}
	assert.Equal(t, 50, r.Len())
	assert.EqualValues(t, 450, r.Evictions())

	r.mu.Lock()
	tombstones := len(r.gone)
	r.mu.Unlock()
	assert.LessOrEqual(t, tombstones, 50)
}

func TestRegistrySweepExpiresIdleViews(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := newRegistry(10*time.Minute, 0)
	r.now = func() time.Time { return now }

	idle := newTestView(t, r)
	_, err := idle.Mount(fade.Snapshot{Viewport: 800})
	require.NoError(t, err)
	busy := newTestView(t, r)

	now = now.Add(8 * time.Minute)
	_, err = r.Get(busy.id)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, idle.bus.Len())

	_, err = r.Get(idle.id)
	assert.ErrorIs(t, err, ErrUnmounted)
	_, err = r.Get(busy.id)
	assert.NoError(t, err)

	// Tombstones expire after another TTL.
	now = now.Add(11 * time.Minute)
	r.Sweep()
	_, err = r.Get(idle.id)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestRegistryRunUnmountsOnShutdown(t *testing.T) {
	r := newRegistry(time.Minute, 0)
	pv := newTestView(t, r)
	_, err := pv.Mount(fade.Snapshot{Viewport: 800})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("registry did not stop")
	}
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, pv.bus.Len())
}

func TestConcurrentScrollReports(t *testing.T) {
	r := newRegistry(time.Minute, 0)
	pv := newTestView(t, r)
	_, err := pv.Mount(fade.Snapshot{Viewport: 800})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i, id := range view.SectionIDs {
		wg.Add(1)
		go func(id string, top float64) {
			defer wg.Done()
			_, scrollErr := pv.Scroll(fade.Snapshot{Viewport: 800, Tops: map[string]float64{id: top}})
			assert.NoError(t, scrollErr)
		}(id, float64(i*100))
	}
	wg.Wait()

	assert.Equal(t, view.SectionIDs, pv.engine.VisibleIDs())
}
